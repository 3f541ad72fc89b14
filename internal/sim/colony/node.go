package colony

import (
	"emberhold/internal/protocol"
	"emberhold/internal/sim/tasks"
)

type NodeState string

const (
	NodeAvailable      NodeState = "AVAILABLE"
	NodeBeingHarvested NodeState = "BEING_HARVESTED"
	NodeDepleted       NodeState = "DEPLETED"
)

// ResourceNode is a depletable harvest target with a single-holder
// reservation. BEING_HARVESTED implies ReservedBy is the harvesting agent.
type ResourceNode struct {
	ID       string
	Resource string
	Pos      Vec2

	MaxHarvests  int
	Yield        int
	HarvestTicks int

	Harvested  int
	State      NodeState
	ReservedBy string

	// WorkTicks is progress on the current harvest cycle.
	WorkTicks int
}

func (n *ResourceNode) CanBeHarvested() bool {
	return n.State == NodeAvailable && n.ReservedBy == ""
}

// Reserve takes the exclusive harvest claim. Re-reserving by the current
// holder succeeds.
func (n *ResourceNode) Reserve(agentID string) bool {
	if agentID == "" || n.State == NodeDepleted {
		return false
	}
	if n.ReservedBy != "" && n.ReservedBy != agentID {
		return false
	}
	n.ReservedBy = agentID
	return true
}

// Release clears the reservation; only the holder may release.
func (n *ResourceNode) Release(agentID string) bool {
	if n.ReservedBy == "" || n.ReservedBy != agentID {
		return false
	}
	n.ReservedBy = ""
	return true
}

// StartHarvest begins a harvest cycle. Requires the reservation and an
// AVAILABLE node.
func (n *ResourceNode) StartHarvest(agentID string) bool {
	if n.ReservedBy != agentID || n.State != NodeAvailable {
		return false
	}
	n.State = NodeBeingHarvested
	n.WorkTicks = 0
	return true
}

// AdvanceHarvest advances the current cycle by one tick. Returns true when
// the cycle finishes; the node returns to AVAILABLE with the harvest count
// incremented and the caller collects the yield (and handles depletion via
// Exhausted).
func (n *ResourceNode) AdvanceHarvest(agentID string) bool {
	if n.ReservedBy != agentID || n.State != NodeBeingHarvested {
		return false
	}
	n.WorkTicks++
	if n.WorkTicks < n.HarvestTicks {
		return false
	}
	n.Harvested++
	n.WorkTicks = 0
	n.State = NodeAvailable
	return true
}

func (n *ResourceNode) Exhausted() bool { return n.Harvested >= n.MaxHarvests }

// depleteNode retires an exhausted node: the node leaves the world and every
// live task still referencing it is cancelled.
func (c *Colony) depleteNode(n *ResourceNode, nowTick uint64) {
	n.State = NodeDepleted
	n.ReservedBy = ""
	delete(c.nodes, n.ID)

	for _, t := range c.sched.sorted() {
		if t.Kind != tasks.KindGather || t.NodeID != n.ID || t.Terminal() {
			continue
		}
		if t.Cancel() {
			c.pushEvent(protocol.Event{"t": nowTick, "type": "TASK_FAIL", "task_id": t.TaskID, "code": protocol.ErrInvalidTarget, "message": "node depleted"})
		}
	}

	c.pushEvent(protocol.Event{"t": nowTick, "type": "NODE_DEPLETED", "node_id": n.ID, "resource": n.Resource, "pos": n.Pos.ToArray()})
}
