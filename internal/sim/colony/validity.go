package colony

import "emberhold/internal/sim/tasks"

// taskValid is the single validity dispatch point: a task whose target became
// unusable must not be handed out, and agents re-check it on every poll.
func (c *Colony) taskValid(t *tasks.Task) bool {
	if t == nil || t.Terminal() {
		return false
	}
	switch t.Kind {
	case tasks.KindGather:
		n := c.nodes[t.NodeID]
		return n != nil && n.State != NodeDepleted && !n.Exhausted()
	case tasks.KindHaul:
		site := c.sites[t.SiteID]
		if site == nil || site.Completed {
			return false
		}
		// Once picked up, the cargo just needs a site to deliver to;
		// before pickup the site must still want this resource.
		return t.PickedUp || site.Remaining(t.Resource) > 0
	case tasks.KindGrowthHaul:
		return true
	case tasks.KindBuild:
		site := c.sites[t.SiteID]
		return site != nil && site.FullyDelivered && !site.Completed
	case tasks.KindProcess:
		st := c.stations[t.StationID]
		return st != nil && st.Active
	}
	return false
}

// findBestTaskFor wraps the scheduler query with the colony's validity
// filter and configured matching radius.
func (c *Colony) findBestTaskFor(role tasks.Role, pos Vec2) *tasks.Task {
	return c.sched.FindBestFor(role, pos, c.cfg.Tuning.MaxTaskDistance, c.taskValid)
}
