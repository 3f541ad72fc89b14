package colony

import "emberhold/internal/sim/tasks"

// NearestAvailableNode finds the closest unreserved, non-depleted node whose
// resource is harvested by the given role, within maxRadius (0 = unlimited).
func (c *Colony) NearestAvailableNode(role tasks.Role, pos Vec2, maxRadius float64) *ResourceNode {
	var best *ResourceNode
	var bestDist float64
	for _, n := range c.sortedNodes() {
		def, ok := c.cats.Resources.ByID[n.Resource]
		if !ok || tasks.Role(def.HarvestRole) != role {
			continue
		}
		if !n.CanBeHarvested() {
			continue
		}
		d := dist(pos, n.Pos)
		if maxRadius > 0 && d > maxRadius {
			continue
		}
		if best == nil || d < bestDist {
			best = n
			bestDist = d
		}
	}
	return best
}

// hasOpenGatherFor guards against stacking duplicate gather tasks on one
// node while the first is still live.
func (c *Colony) hasOpenGatherFor(nodeID string) bool {
	for _, t := range c.sched.sorted() {
		if t.Kind == tasks.KindGather && t.NodeID == nodeID && !t.Terminal() {
			return true
		}
	}
	return false
}

// posOfPlace resolves a haul source/destination id to a position.
func (c *Colony) posOfPlace(id string) (Vec2, bool) {
	switch id {
	case PlaceStockpile:
		return c.cfg.StockpilePos, true
	case PlaceHub:
		return c.cfg.HubPos, true
	}
	if s := c.sites[id]; s != nil {
		return s.Pos, true
	}
	if st := c.stations[id]; st != nil {
		return st.Pos, true
	}
	if b := c.buildings[id]; b != nil {
		return b.Pos, true
	}
	return Vec2{}, false
}
