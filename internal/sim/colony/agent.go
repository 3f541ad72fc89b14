package colony

import (
	"emberhold/internal/sim/tasks"
)

type AgentState string

const (
	AgentIdle    AgentState = "IDLE"
	AgentMoving  AgentState = "MOVING"
	AgentWorking AgentState = "WORKING"
	AgentHauling AgentState = "HAULING"
)

// Agent is an autonomous worker. All fields are owned by the colony loop.
type Agent struct {
	ID   string
	Name string
	Role tasks.Role

	State AgentState
	Pos   Vec2

	// Carried inventory: a single resource kind, bounded by Capacity.
	Carry      string
	CarryCount int
	Capacity   int

	Task *tasks.Task

	mover Mover

	nextScanAt uint64

	// Stuck detection for travel legs.
	stuckTicks int
}

// AddToInventory adds up to n units of resource and returns the amount
// actually added: zero if a different resource kind is already carried, and
// clamped so CarryCount never exceeds Capacity.
func (a *Agent) AddToInventory(resource string, n int) int {
	if resource == "" || n <= 0 {
		return 0
	}
	if a.CarryCount > 0 && a.Carry != resource {
		return 0
	}
	space := a.Capacity - a.CarryCount
	if space <= 0 {
		return 0
	}
	add := n
	if add > space {
		add = space
	}
	a.Carry = resource
	a.CarryCount += add
	return add
}

// SpaceFor reports how many units of resource still fit.
func (a *Agent) SpaceFor(resource string) int {
	if a.CarryCount > 0 && a.Carry != resource {
		return 0
	}
	return a.Capacity - a.CarryCount
}

// ClearInventory empties the carried stack and returns what was carried.
func (a *Agent) ClearInventory() (resource string, n int) {
	resource, n = a.Carry, a.CarryCount
	a.Carry = ""
	a.CarryCount = 0
	return resource, n
}

func (a *Agent) setDestination(target Vec2) {
	a.mover.SetDestination(target)
	a.stuckTicks = 0
}
