package colony

// StateSnapshot is a JSON-friendly export of the live colony state, used by
// the observer join handshake and the periodic snapshot sink.
type StateSnapshot struct {
	ColonyID string `json:"colony_id"`
	Tick     uint64 `json:"tick"`
	Seed     int64  `json:"seed"`

	Stock   map[string]int  `json:"stock"`
	Housing HousingSnapshot `json:"housing"`

	Agents    []AgentSnapshot    `json:"agents"`
	Nodes     []NodeSnapshot     `json:"nodes"`
	Tasks     []TaskSnapshot     `json:"tasks"`
	Sites     []SiteSnapshot     `json:"sites"`
	Buildings []BuildingSnapshot `json:"buildings"`
}

type HousingSnapshot struct {
	Capacity int `json:"capacity"`
	Occupied int `json:"occupied"`
	Growth   int `json:"growth"`
}

type AgentSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	State string `json:"state"`
	Pos   [2]int `json:"pos"`
	Carry string `json:"carry,omitempty"`
	Count int    `json:"count,omitempty"`
	Task  string `json:"task,omitempty"`
}

type NodeSnapshot struct {
	ID        string `json:"id"`
	Resource  string `json:"resource"`
	Pos       [2]int `json:"pos"`
	State     string `json:"state"`
	Harvested int    `json:"harvested"`
	Max       int    `json:"max"`
	Reserved  string `json:"reserved,omitempty"`
}

type TaskSnapshot struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	State    string `json:"state"`
	Priority int    `json:"priority"`
	Pos      [2]int `json:"pos"`
	Assigned string `json:"assigned,omitempty"`
}

type SiteSnapshot struct {
	ID        string         `json:"id"`
	Building  string         `json:"building"`
	Pos       [2]int         `json:"pos"`
	Required  map[string]int `json:"required"`
	Delivered map[string]int `json:"delivered"`
	Ready     bool           `json:"ready"`
}

type BuildingSnapshot struct {
	ID   string `json:"id"`
	Def  string `json:"def"`
	Kind string `json:"kind"`
	Pos  [2]int `json:"pos"`
}

func (c *Colony) ExportSnapshot(nowTick uint64) StateSnapshot {
	snap := StateSnapshot{
		ColonyID: c.cfg.ID,
		Tick:     nowTick,
		Seed:     c.cfg.Seed,
		Stock:    c.ledger.Stock(),
		Housing: HousingSnapshot{
			Capacity: c.housing.Capacity,
			Occupied: c.housing.Occupied,
			Growth:   c.housing.Growth,
		},
	}
	for _, a := range c.sortedAgents() {
		s := AgentSnapshot{ID: a.ID, Name: a.Name, Role: string(a.Role), State: string(a.State), Pos: a.Pos.ToArray()}
		if a.CarryCount > 0 {
			s.Carry, s.Count = a.Carry, a.CarryCount
		}
		if a.Task != nil {
			s.Task = a.Task.TaskID
		}
		snap.Agents = append(snap.Agents, s)
	}
	for _, n := range c.sortedNodes() {
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			ID: n.ID, Resource: n.Resource, Pos: n.Pos.ToArray(),
			State: string(n.State), Harvested: n.Harvested, Max: n.MaxHarvests, Reserved: n.ReservedBy,
		})
	}
	for _, t := range c.sched.sorted() {
		snap.Tasks = append(snap.Tasks, TaskSnapshot{
			ID: t.TaskID, Kind: string(t.Kind), State: string(t.State),
			Priority: t.Priority, Pos: vFromTask(t.Pos).ToArray(), Assigned: t.AssignedTo,
		})
	}
	for _, s := range c.sortedSites() {
		snap.Sites = append(snap.Sites, SiteSnapshot{
			ID: s.ID, Building: s.Building, Pos: s.Pos.ToArray(),
			Required: copyIntMap(s.Required), Delivered: copyIntMap(s.Delivered), Ready: s.FullyDelivered,
		})
	}
	for _, b := range c.sortedBuildings() {
		snap.Buildings = append(snap.Buildings, BuildingSnapshot{ID: b.ID, Def: b.Def, Kind: b.Kind, Pos: b.Pos.ToArray()})
	}
	return snap
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
