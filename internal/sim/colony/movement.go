package colony

// Mover is the movement/pathing provider attached to each agent. The colony
// treats it as a black box: set a destination, poll arrival, ask for the
// next waypoint.
type Mover interface {
	SetDestination(target Vec2)
	Arrived(pos Vec2) bool
	NextStep(pos Vec2) Vec2
}

// GridMover steps one cell per tick along the dominant axis. Arrival means
// within tolerance, not on the exact target, so agents stop adjacent to
// nodes and sites instead of standing on them.
type GridMover struct {
	target    Vec2
	tolerance int
}

func NewGridMover() *GridMover {
	return &GridMover{tolerance: 1}
}

func (m *GridMover) SetDestination(target Vec2) { m.target = target }

func (m *GridMover) Arrived(pos Vec2) bool {
	return manhattan(pos, m.target) <= m.tolerance
}

func (m *GridMover) NextStep(pos Vec2) Vec2 {
	dx := m.target.X - pos.X
	dy := m.target.Y - pos.Y
	next := pos
	if absInt(dx) >= absInt(dy) {
		if dx > 0 {
			next.X++
		} else if dx < 0 {
			next.X--
		}
	} else {
		if dy > 0 {
			next.Y++
		} else if dy < 0 {
			next.Y--
		}
	}
	return next
}
