package tasks

type Kind string

const (
	KindGather     Kind = "GATHER"
	KindHaul       Kind = "HAUL"
	KindBuild      Kind = "BUILD"
	KindProcess    Kind = "PROCESS"
	KindGrowthHaul Kind = "GROWTH_HAUL"
)

type State string

const (
	StatePending    State = "PENDING"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
	StateCancelled  State = "CANCELLED"
)

type Role string

const (
	RoleNone       Role = "NONE"
	RoleLumberjack Role = "LUMBERJACK"
	RoleMiner      Role = "MINER"
	RoleFarmer     Role = "FARMER"
	RoleBuilder    Role = "BUILDER"
	RoleHauler     Role = "HAULER"
)

// Task is a tagged union over Kind: payload fields beyond the common header
// are only meaningful for the kinds annotated below. Dispatch happens in the
// colony package (agent work handler + validity filter), not here.
type Task struct {
	TaskID      string
	Kind        Kind
	State       State
	Priority    int // higher wins
	Pos         Vec2
	Roles       []Role
	CreatedTick uint64

	// AssignedTo is non-empty exactly while State==IN_PROGRESS.
	AssignedTo string

	// GATHER
	NodeID string

	// HAUL / GROWTH_HAUL
	Resource string
	Amount   int
	SourceID string
	DestID   string
	PickedUp bool

	// HAUL(site) / BUILD
	SiteID string

	// BUILD
	DurationTicks int

	// PROCESS
	StationID string

	// WorkTicks is elapsed ticks on the current unit of work (BUILD/PROCESS).
	WorkTicks int
}

func (t *Task) Terminal() bool {
	return t.State == StateCompleted || t.State == StateCancelled
}

// TryAssign claims the task for an agent. It fails unless the task is
// PENDING, leaving the loser of an assignment race empty-handed but unharmed.
func (t *Task) TryAssign(agentID string) bool {
	if agentID == "" || t.State != StatePending {
		return false
	}
	t.State = StateInProgress
	t.AssignedTo = agentID
	return true
}

// Unassign returns an IN_PROGRESS task to the pending pool. Terminal states
// are never reopened.
func (t *Task) Unassign() {
	if t.State != StateInProgress {
		return
	}
	t.State = StatePending
	t.AssignedTo = ""
}

// Complete marks the task done. Returns false if the task was already terminal.
func (t *Task) Complete() bool {
	if t.Terminal() {
		return false
	}
	t.State = StateCompleted
	t.AssignedTo = ""
	return true
}

// Cancel is idempotent: cancelling a terminal task is a no-op.
func (t *Task) Cancel() bool {
	if t.Terminal() {
		return false
	}
	t.State = StateCancelled
	t.AssignedTo = ""
	return true
}

func (t *Task) EligibleFor(role Role) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Vec2 is duplicated here to avoid import cycles (tasks is used by colony).
type Vec2 struct{ X, Y int }
