package colony

import (
	"emberhold/internal/protocol"
	"emberhold/internal/sim/tasks"
)

// systemAgents drives every worker's state machine once per tick, in id
// order.
func (c *Colony) systemAgents(nowTick uint64) {
	for _, a := range c.sortedAgents() {
		switch a.State {
		case AgentIdle:
			c.tickIdle(a, nowTick)
		case AgentMoving:
			c.tickMoving(a, nowTick)
		case AgentWorking:
			c.tickWorking(a, nowTick)
		case AgentHauling:
			c.tickHauling(a, nowTick)
		}
	}
}

// tickIdle scans for work on the configured interval. If the scheduler has
// nothing, harvest roles spawn a gather task on the fly from the nearest
// matching node.
func (c *Colony) tickIdle(a *Agent, nowTick uint64) {
	if a.CarryCount > 0 {
		// Leftover cargo with no task: bring it home first.
		a.setDestination(c.cfg.StockpilePos)
		a.State = AgentHauling
		c.eventAgentState(nowTick, a)
		return
	}
	if nowTick < a.nextScanAt {
		return
	}
	a.nextScanAt = nowTick + uint64(c.cfg.Tuning.ScanIntervalTicks)

	t := c.findBestTaskFor(a.Role, a.Pos)
	if t == nil {
		t = c.spawnGatherTask(a, nowTick)
	}
	if t == nil {
		return
	}
	if !t.TryAssign(a.ID) {
		// Lost the assignment race within this tick; scan again later.
		return
	}
	a.Task = t
	a.setDestination(c.travelTarget(t))
	a.State = AgentMoving
	c.pushEvent(protocol.Event{"t": nowTick, "type": "TASK_ASSIGNED", "task_id": t.TaskID, "agent_id": a.ID, "kind": string(t.Kind)})
	c.eventAgentState(nowTick, a)
}

// spawnGatherTask creates a gather task from the world query when the
// scheduler is empty for this agent. Returns nil when the role harvests
// nothing, no node is in range, the node's cycle yield would not fit the
// agent's carry capacity, or the backlog is full.
func (c *Colony) spawnGatherTask(a *Agent, nowTick uint64) *tasks.Task {
	n := c.NearestAvailableNode(a.Role, a.Pos, c.cfg.Tuning.MaxTaskDistance)
	if n == nil || n.Yield > a.Capacity || c.hasOpenGatherFor(n.ID) {
		return nil
	}
	t := &tasks.Task{
		TaskID:      c.newTaskID(),
		Kind:        tasks.KindGather,
		State:       tasks.StatePending,
		Priority:    priorityGather,
		Pos:         vToTask(n.Pos),
		Roles:       []tasks.Role{a.Role},
		CreatedTick: nowTick,
		NodeID:      n.ID,
		Resource:    n.Resource,
	}
	if err := c.addTask(t, nowTick); err != nil {
		return nil
	}
	return t
}

// travelTarget is where the agent must go first for a freshly claimed task:
// hauls start at their source, everything else at the task position.
func (c *Colony) travelTarget(t *tasks.Task) Vec2 {
	switch t.Kind {
	case tasks.KindHaul, tasks.KindGrowthHaul:
		if !t.PickedUp {
			if pos, ok := c.posOfPlace(t.SourceID); ok {
				return pos
			}
		}
	}
	return vFromTask(t.Pos)
}

// tickMoving polls travel toward the current task's first leg and branches
// by kind on arrival.
func (c *Colony) tickMoving(a *Agent, nowTick uint64) {
	t := a.Task
	if t == nil {
		a.State = AgentIdle
		return
	}
	if !c.taskValid(t) {
		c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "target no longer usable")
		return
	}
	if !a.mover.Arrived(a.Pos) {
		c.stepTravel(a, nowTick)
		return
	}

	switch t.Kind {
	case tasks.KindGather:
		n := c.nodes[t.NodeID]
		if n != nil && a.SpaceFor(n.Resource) < n.Yield {
			// A full cycle's yield must fit the carry stack; the inventory
			// add clamps and the overflow would be lost.
			c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "cycle yield exceeds carry space")
			return
		}
		claimed := n != nil && n.Reserve(a.ID)
		if claimed && !n.StartHarvest(a.ID) {
			n.Release(a.ID)
			claimed = false
		}
		if !claimed {
			// Reservation race lost: the task goes back to the pool.
			t.Unassign()
			a.Task = nil
			a.State = AgentIdle
			c.pushEvent(protocol.Event{"t": nowTick, "type": "CLAIM_LOST", "task_id": t.TaskID, "agent_id": a.ID, "code": protocol.ErrConflict})
			return
		}
		a.State = AgentWorking
		c.eventAgentState(nowTick, a)

	case tasks.KindHaul, tasks.KindGrowthHaul:
		c.pickupHaul(a, t, nowTick)

	case tasks.KindBuild, tasks.KindProcess:
		a.State = AgentWorking
		c.eventAgentState(nowTick, a)

	default:
		c.failAgentTask(a, nowTick, protocol.ErrBadRequest, "unknown task kind")
	}
}

// pickupHaul executes the withdrawal side effect at the haul source and
// retargets the loaded agent at the destination.
func (c *Colony) pickupHaul(a *Agent, t *tasks.Task, nowTick uint64) {
	if t.SourceID != PlaceStockpile {
		c.failAgentTask(a, nowTick, protocol.ErrBadRequest, "unsupported haul source")
		return
	}
	want := t.Amount
	if space := a.SpaceFor(t.Resource); want > space {
		want = space
	}
	if want <= 0 || !c.ledger.TryRemove(t.Resource, want) {
		c.failAgentTask(a, nowTick, protocol.ErrNoResource, "withdrawal refused")
		return
	}
	a.AddToInventory(t.Resource, want)
	t.PickedUp = true
	c.audit(nowTick, a.ID, "WITHDRAW", t.Resource, want, t.TaskID, "")

	dest, ok := c.posOfPlace(t.DestID)
	if !ok {
		c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "destination gone")
		return
	}
	a.setDestination(dest)
	a.State = AgentHauling
	c.eventAgentState(nowTick, a)
}

// tickWorking polls the task's progress; the kind switch here is the second
// of the two dispatch points.
func (c *Colony) tickWorking(a *Agent, nowTick uint64) {
	t := a.Task
	if t == nil {
		a.State = AgentIdle
		return
	}
	if t.Terminal() {
		// Cancelled externally; unwind.
		c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "task cancelled")
		return
	}

	switch t.Kind {
	case tasks.KindGather:
		c.workGather(a, t, nowTick)
	case tasks.KindBuild:
		c.workBuild(a, t, nowTick)
	case tasks.KindProcess:
		c.workProcess(a, t, nowTick)
	default:
		c.failAgentTask(a, nowTick, protocol.ErrBadRequest, "task kind cannot be worked")
	}
}

// workGather runs multi-cycle harvesting: accumulate yield until the carry
// capacity cannot fit another cycle or the node runs out, then haul the load
// to the stockpile.
func (c *Colony) workGather(a *Agent, t *tasks.Task, nowTick uint64) {
	n := c.nodes[t.NodeID]
	if n == nil {
		// Node vanished; keep whatever was already harvested.
		c.finishGather(a, t, nowTick)
		return
	}
	if !n.AdvanceHarvest(a.ID) {
		return
	}

	got := a.AddToInventory(n.Resource, n.Yield)
	c.audit(nowTick, a.ID, "HARVEST", n.Resource, got, n.ID, "")

	if n.Exhausted() {
		c.finishGather(a, t, nowTick)
		c.depleteNode(n, nowTick)
		return
	}
	if a.SpaceFor(n.Resource) < n.Yield {
		// Next cycle would not fit; haul a partial-capacity load rather
		// than spill yield.
		n.Release(a.ID)
		c.finishGather(a, t, nowTick)
		return
	}
	n.StartHarvest(a.ID)
}

func (c *Colony) finishGather(a *Agent, t *tasks.Task, nowTick uint64) {
	if t.Complete() {
		c.pushEvent(taskDone(nowTick, t.TaskID, string(t.Kind)))
	}
	a.Task = nil
	if a.CarryCount > 0 {
		a.setDestination(c.cfg.StockpilePos)
		a.State = AgentHauling
	} else {
		a.State = AgentIdle
	}
	c.eventAgentState(nowTick, a)
}

func (c *Colony) workBuild(a *Agent, t *tasks.Task, nowTick uint64) {
	if !c.taskValid(t) {
		c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "site gone")
		return
	}
	t.WorkTicks++
	if t.WorkTicks < t.DurationTicks {
		return
	}
	c.completeBuild(t, a.ID, nowTick)
	if t.Complete() {
		c.pushEvent(taskDone(nowTick, t.TaskID, string(t.Kind)))
	}
	a.Task = nil
	a.State = AgentIdle
	c.eventAgentState(nowTick, a)
}

// workProcess accumulates station output into the agent's inventory across
// production cycles until the next cycle would not fit.
func (c *Colony) workProcess(a *Agent, t *tasks.Task, nowTick uint64) {
	st := c.stations[t.StationID]
	if st == nil || !st.Active {
		if a.CarryCount > 0 {
			c.finishProcess(a, t, nowTick)
			return
		}
		c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "station inactive")
		return
	}
	t.WorkTicks++
	if t.WorkTicks < st.CycleTicks {
		return
	}
	t.WorkTicks = 0

	got := a.AddToInventory(st.Output, st.YieldPerCycle)
	c.audit(nowTick, a.ID, "PROCESS", st.Output, got, st.ID, "")

	if a.SpaceFor(st.Output) < st.YieldPerCycle {
		c.finishProcess(a, t, nowTick)
	}
}

func (c *Colony) finishProcess(a *Agent, t *tasks.Task, nowTick uint64) {
	if t.Complete() {
		c.pushEvent(taskDone(nowTick, t.TaskID, string(t.Kind)))
	}
	a.Task = nil
	a.setDestination(c.cfg.StockpilePos)
	a.State = AgentHauling
	c.eventAgentState(nowTick, a)
}

// tickHauling polls the loaded travel leg. Arrival either deposits into the
// ledger (no task: coming back from gather/process) or performs the task's
// delivery.
func (c *Colony) tickHauling(a *Agent, nowTick uint64) {
	t := a.Task
	if t != nil && !c.taskValid(t) {
		c.failAgentTask(a, nowTick, protocol.ErrInvalidTarget, "target no longer usable")
		return
	}
	if !a.mover.Arrived(a.Pos) {
		c.stepTravel(a, nowTick)
		return
	}

	if t == nil {
		res, n := a.ClearInventory()
		if n > 0 {
			c.ledger.Add(res, n)
			c.audit(nowTick, a.ID, "DEPOSIT", res, n, "", "")
			c.pushEvent(protocol.Event{"t": nowTick, "type": "DEPOSIT", "agent_id": a.ID, "resource": res, "count": n})
		}
		a.State = AgentIdle
		c.eventAgentState(nowTick, a)
		return
	}

	switch t.Kind {
	case tasks.KindGrowthHaul:
		res, n := a.ClearInventory()
		c.housing.Growth += n
		c.audit(nowTick, a.ID, "DELIVER", res, n, t.TaskID, "growth")
		if t.Complete() {
			c.pushEvent(taskDone(nowTick, t.TaskID, string(t.Kind)))
		}
		a.Task = nil
		a.State = AgentIdle
		c.eventAgentState(nowTick, a)

	case tasks.KindHaul:
		c.deliverHaul(a, t, nowTick)

	default:
		c.failAgentTask(a, nowTick, protocol.ErrBadRequest, "task kind cannot be delivered")
	}
}

func (c *Colony) deliverHaul(a *Agent, t *tasks.Task, nowTick uint64) {
	site := c.sites[t.SiteID]
	if site == nil || site.Completed {
		c.failAgentTask(a, nowTick, protocol.ErrDelivery, "site gone")
		return
	}
	res, n := a.ClearInventory()
	accepted := site.DeliverResource(res, n)
	if accepted <= 0 {
		c.failAgentTask(a, nowTick, protocol.ErrDelivery, "delivery rejected")
		return
	}
	// A clamped delivery leaves a remainder; it goes back to the stockpile
	// ledger rather than vanishing.
	if leftover := n - accepted; leftover > 0 {
		c.ledger.Add(res, leftover)
		c.audit(nowTick, a.ID, "RETURN", res, leftover, t.TaskID, "site need already met")
	}
	c.audit(nowTick, a.ID, "DELIVER", res, accepted, t.TaskID, site.ID)
	c.pushEvent(protocol.Event{"t": nowTick, "type": "SITE_DELIVERY", "site_id": site.ID, "resource": res, "count": accepted, "agent_id": a.ID})

	c.maybeFinishDelivery(site, nowTick)

	if t.Complete() {
		c.pushEvent(taskDone(nowTick, t.TaskID, string(t.Kind)))
	}
	a.Task = nil
	a.State = AgentIdle
	c.eventAgentState(nowTick, a)
}

// stepTravel advances one waypoint and watches for a stalled leg: a mover
// that stops making progress for the configured timeout gets its task
// cancelled instead of stalling the agent forever.
func (c *Colony) stepTravel(a *Agent, nowTick uint64) {
	prev := a.Pos
	a.Pos = a.mover.NextStep(a.Pos)
	if a.Pos == prev {
		a.stuckTicks++
		if a.stuckTicks > c.cfg.Tuning.StuckTimeoutTicks {
			c.failAgentTask(a, nowTick, protocol.ErrStuck, "travel made no progress")
		}
		return
	}
	a.stuckTicks = 0
}

// failAgentTask cancels the current task (if still live), drops any carried
// inventory, and unwinds the agent to IDLE.
func (c *Colony) failAgentTask(a *Agent, nowTick uint64, code, message string) {
	if t := a.Task; t != nil {
		if t.Kind == tasks.KindGather {
			if n := c.nodes[t.NodeID]; n != nil {
				n.Release(a.ID)
			}
		}
		if t.Cancel() {
			c.pushEvent(taskFail(nowTick, t.TaskID, code, message))
		}
		a.Task = nil
	}
	if res, n := a.ClearInventory(); n > 0 {
		c.audit(nowTick, a.ID, "DROP", res, n, "", code)
		c.pushEvent(protocol.Event{"t": nowTick, "type": "CARGO_DROPPED", "agent_id": a.ID, "resource": res, "count": n, "code": code})
	}
	a.stuckTicks = 0
	a.State = AgentIdle
	c.eventAgentState(nowTick, a)
}
