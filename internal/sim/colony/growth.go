package colony

import (
	"fmt"

	"emberhold/internal/protocol"
	"emberhold/internal/sim/tasks"
)

// systemGrowth converts accumulated growth resource plus free housing into
// new agents, feeding the accumulator with GROWTH_HAUL tasks in between.
func (c *Colony) systemGrowth(nowTick uint64) {
	g := c.cfg.Tuning.Growth
	if nowTick == 0 || nowTick%uint64(g.IntervalTicks) != 0 {
		return
	}
	if c.housing.Available() <= 0 {
		return
	}

	if c.housing.Growth >= g.Threshold {
		c.housing.Growth -= g.Threshold
		pos := Vec2{X: c.cfg.HubPos.X + 1, Y: c.cfg.HubPos.Y}
		a := c.SpawnAgent(fmt.Sprintf("settler-%d", c.nextAgentNum.Load()+1), tasks.RoleNone, pos)
		c.housing.Occupied++
		c.pushEvent(protocol.Event{"t": nowTick, "type": "GROWTH_SPAWN", "agent_id": a.ID, "occupied": c.housing.Occupied, "capacity": c.housing.Capacity})
		return
	}

	if c.hasOpenGrowthHaul() {
		return
	}
	batch := c.cfg.Tuning.HaulBatch
	if !c.ledger.HasEnough(g.Resource, batch) {
		return
	}
	t := &tasks.Task{
		TaskID:      c.newTaskID(),
		Kind:        tasks.KindGrowthHaul,
		State:       tasks.StatePending,
		Priority:    g.HaulPriority,
		Pos:         vToTask(c.cfg.StockpilePos),
		Roles:       haulRoles,
		CreatedTick: nowTick,
		Resource:    g.Resource,
		Amount:      batch,
		SourceID:    PlaceStockpile,
		DestID:      PlaceHub,
	}
	_ = c.addTask(t, nowTick)
}

func (c *Colony) hasOpenGrowthHaul() bool {
	for _, t := range c.sched.sorted() {
		if t.Kind == tasks.KindGrowthHaul && !t.Terminal() {
			return true
		}
	}
	return false
}
