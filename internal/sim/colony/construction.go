package colony

import (
	"fmt"
	"sort"

	"emberhold/internal/protocol"
	"emberhold/internal/sim/tasks"
)

// Default task priorities. Growth hauls take theirs from tuning.
const (
	priorityGather  = 3
	priorityHaul    = 5
	priorityBuild   = 6
	priorityProcess = 2
)

var (
	haulRoles  = []tasks.Role{tasks.RoleHauler, tasks.RoleNone}
	buildRoles = []tasks.Role{tasks.RoleBuilder, tasks.RoleNone}
)

// Site stages partial resource delivery for a building under construction.
type Site struct {
	ID       string
	Building string // catalog def id
	Pos      Vec2

	Required  map[string]int
	Delivered map[string]int

	// One-way flags.
	FullyDelivered bool
	BuildStarted   bool
	Completed      bool

	BuildTaskID string
}

func (s *Site) Remaining(resource string) int {
	rem := s.Required[resource] - s.Delivered[resource]
	if rem < 0 {
		return 0
	}
	return rem
}

// DeliverResource accumulates a delivery, clamped to the remaining need.
// Returns the amount accepted.
func (s *Site) DeliverResource(resource string, n int) int {
	if n <= 0 {
		return 0
	}
	rem := s.Remaining(resource)
	if rem <= 0 {
		return 0
	}
	if n > rem {
		n = rem
	}
	s.Delivered[resource] += n
	return n
}

func (s *Site) deliveredAll() bool {
	for res, req := range s.Required {
		if s.Delivered[res] < req {
			return false
		}
	}
	return true
}

// Building is a finished structure.
type Building struct {
	ID   string
	Def  string
	Kind string
	Pos  Vec2
}

// ProcessStation is a workshop's production side: a PROCESS task parks an
// agent here, accumulating Output into the agent's inventory per cycle.
type ProcessStation struct {
	ID         string
	BuildingID string
	Pos        Vec2

	Output        string
	CycleTicks    int
	YieldPerCycle int
	WorkerRole    tasks.Role

	Active bool
}

// PlaceBuilding validates affordability against the ledger (without
// deducting; deduction happens per haul withdrawal), creates the site and
// emits its haul tasks.
func (c *Colony) PlaceBuilding(defID string, pos Vec2) (*Site, error) {
	nowTick := c.tick.Load()
	def, ok := c.cats.Buildings.ByID[defID]
	if !ok {
		return nil, fmt.Errorf("unknown building %q", defID)
	}
	for _, res := range sortedKeys(def.Cost) {
		if !c.ledger.HasEnough(res, def.Cost[res]) {
			c.pushEvent(protocol.Event{"t": nowTick, "type": "REFUSED", "action": "PLACE", "building": defID, "code": protocol.ErrNoResource, "resource": res})
			return nil, fmt.Errorf("not enough %s for %s", res, defID)
		}
	}

	site := &Site{
		ID:        c.newSiteID(),
		Building:  defID,
		Pos:       pos,
		Required:  map[string]int{},
		Delivered: map[string]int{},
	}
	for res, n := range def.Cost {
		site.Required[res] = n
	}
	c.sites[site.ID] = site
	c.pushEvent(protocol.Event{"t": nowTick, "type": "SITE_PLACED", "site_id": site.ID, "building": defID, "pos": pos.ToArray()})

	c.ensureSiteHauls(site, nowTick)
	c.maybeFinishDelivery(site, nowTick)
	return site, nil
}

// ensureSiteHauls tops the site's haul coverage up to its remaining need,
// one task per haul batch (ceiling-divided). Re-run periodically so needs
// uncovered by a full backlog or a cancelled haul get re-emitted.
func (c *Colony) ensureSiteHauls(site *Site, nowTick uint64) {
	if site.FullyDelivered || site.Completed {
		return
	}
	batch := c.cfg.Tuning.HaulBatch
	for _, res := range sortedKeys(site.Required) {
		outstanding := site.Remaining(res) - c.inflightToSite(site.ID, res)
		for outstanding > 0 {
			amount := batch
			if amount > outstanding {
				amount = outstanding
			}
			t := &tasks.Task{
				TaskID:      c.newTaskID(),
				Kind:        tasks.KindHaul,
				State:       tasks.StatePending,
				Priority:    priorityHaul,
				Pos:         vToTask(c.cfg.StockpilePos),
				Roles:       haulRoles,
				CreatedTick: nowTick,
				Resource:    res,
				Amount:      amount,
				SourceID:    PlaceStockpile,
				DestID:      site.ID,
				SiteID:      site.ID,
			}
			if err := c.addTask(t, nowTick); err != nil {
				return
			}
			outstanding -= amount
		}
	}
}

// inflightToSite sums live haul amounts already headed for a site resource.
func (c *Colony) inflightToSite(siteID, resource string) int {
	sum := 0
	for _, t := range c.sched.sorted() {
		if t.Kind != tasks.KindHaul || t.SiteID != siteID || t.Resource != resource || t.Terminal() {
			continue
		}
		sum += t.Amount
	}
	return sum
}

// maybeFinishDelivery flips the one-way fully-delivered flag and emits the
// single build task.
func (c *Colony) maybeFinishDelivery(site *Site, nowTick uint64) {
	if site.FullyDelivered || !site.deliveredAll() {
		return
	}
	site.FullyDelivered = true
	c.pushEvent(protocol.Event{"t": nowTick, "type": "SITE_READY", "site_id": site.ID, "building": site.Building})

	def := c.cats.Buildings.ByID[site.Building]
	t := &tasks.Task{
		TaskID:        c.newTaskID(),
		Kind:          tasks.KindBuild,
		State:         tasks.StatePending,
		Priority:      priorityBuild,
		Pos:           vToTask(site.Pos),
		Roles:         buildRoles,
		CreatedTick:   nowTick,
		SiteID:        site.ID,
		DurationTicks: def.BuildTicks,
	}
	if err := c.addTask(t, nowTick); err != nil {
		// Backlog full; systemConstruction retries on the next pass.
		return
	}
	site.BuildStarted = true
	site.BuildTaskID = t.TaskID
}

// completeBuild finalizes a build task: the site becomes a building, with
// housing capacity or a process station per its definition, and the site is
// discarded.
func (c *Colony) completeBuild(t *tasks.Task, builder string, nowTick uint64) {
	site := c.sites[t.SiteID]
	if site == nil {
		return
	}
	site.Completed = true
	delete(c.sites, site.ID)

	def := c.cats.Buildings.ByID[site.Building]
	b := &Building{ID: c.newBldgID(), Def: def.ID, Kind: def.Kind, Pos: site.Pos}
	c.buildings[b.ID] = b

	if def.Housing > 0 {
		c.housing.Capacity += def.Housing
	}
	if def.Kind == "WORKSHOP" {
		st := &ProcessStation{
			ID:            b.ID,
			BuildingID:    b.ID,
			Pos:           site.Pos,
			Output:        def.Output,
			CycleTicks:    def.CycleTicks,
			YieldPerCycle: def.YieldPerCycle,
			WorkerRole:    tasks.Role(def.WorkerRole),
			Active:        true,
		}
		c.stations[st.ID] = st
	}

	c.audit(nowTick, builder, "BUILD", "", 0, site.ID, def.ID)
	c.pushEvent(protocol.Event{"t": nowTick, "type": "BUILDING_COMPLETE", "building_id": b.ID, "def": def.ID, "pos": b.Pos.ToArray(), "builder": builder})
}

// systemConstruction re-checks sites on the sweep cadence: hauls that were
// refused at a full backlog or cancelled mid-flight get re-emitted, and a
// fully-delivered site whose build task could not be added gets another try.
func (c *Colony) systemConstruction(nowTick uint64) {
	if nowTick%uint64(c.cfg.Tuning.SweepIntervalTicks) != 0 {
		return
	}
	for _, site := range c.sortedSites() {
		if site.FullyDelivered {
			if !site.BuildStarted {
				c.maybeEmitBuild(site, nowTick)
			}
			continue
		}
		c.ensureSiteHauls(site, nowTick)
	}
}

func (c *Colony) maybeEmitBuild(site *Site, nowTick uint64) {
	def := c.cats.Buildings.ByID[site.Building]
	t := &tasks.Task{
		TaskID:        c.newTaskID(),
		Kind:          tasks.KindBuild,
		State:         tasks.StatePending,
		Priority:      priorityBuild,
		Pos:           vToTask(site.Pos),
		Roles:         buildRoles,
		CreatedTick:   nowTick,
		SiteID:        site.ID,
		DurationTicks: def.BuildTicks,
	}
	if err := c.addTask(t, nowTick); err != nil {
		return
	}
	site.BuildStarted = true
	site.BuildTaskID = t.TaskID
}

// systemStations keeps one live PROCESS task per active station.
func (c *Colony) systemStations(nowTick uint64) {
	if nowTick%uint64(c.cfg.Tuning.SweepIntervalTicks) != 0 {
		return
	}
	for _, st := range c.sortedStations() {
		if !st.Active || c.hasOpenProcessTask(st.ID) {
			continue
		}
		t := &tasks.Task{
			TaskID:      c.newTaskID(),
			Kind:        tasks.KindProcess,
			State:       tasks.StatePending,
			Priority:    priorityProcess,
			Pos:         vToTask(st.Pos),
			Roles:       []tasks.Role{st.WorkerRole, tasks.RoleNone},
			CreatedTick: nowTick,
			StationID:   st.ID,
		}
		_ = c.addTask(t, nowTick)
	}
}

func (c *Colony) hasOpenProcessTask(stationID string) bool {
	for _, t := range c.sched.sorted() {
		if t.Kind == tasks.KindProcess && t.StationID == stationID && !t.Terminal() {
			return true
		}
	}
	return false
}

// addTask registers a task with the scheduler, surfacing a full backlog as
// an event plus an error to the producer.
func (c *Colony) addTask(t *tasks.Task, nowTick uint64) error {
	if err := c.sched.Add(t); err != nil {
		c.backlogDrops++
		c.pushEvent(protocol.Event{"t": nowTick, "type": "REFUSED", "action": "ADD_TASK", "kind": string(t.Kind), "code": protocol.ErrBacklogFull})
		return err
	}
	c.pushEvent(protocol.Event{"t": nowTick, "type": "TASK_ADDED", "task_id": t.TaskID, "kind": string(t.Kind), "priority": t.Priority, "pos": vFromTask(t.Pos).ToArray()})
	return nil
}

func sortedKeys(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
