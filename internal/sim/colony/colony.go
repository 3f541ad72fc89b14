package colony

import (
	"fmt"
	"sort"
	"sync/atomic"

	"emberhold/internal/protocol"
	"emberhold/internal/sim/catalogs"
	"emberhold/internal/sim/tasks"
	"emberhold/internal/sim/tuning"
)

type Config struct {
	ID   string
	Seed int64

	Tuning tuning.Tuning

	HubPos       Vec2
	StockpilePos Vec2
}

// Well-known place ids usable as haul sources/destinations.
const (
	PlaceStockpile = "STOCKPILE"
	PlaceHub       = "HUB"
)

// Colony is a single-threaded authoritative simulation. All state must be
// accessed only from the colony loop goroutine (or before Run starts).
type Colony struct {
	cfg  Config
	cats *catalogs.Catalogs

	tick atomic.Uint64

	agents    map[string]*Agent
	nodes     map[string]*ResourceNode
	sites     map[string]*Site
	buildings map[string]*Building
	stations  map[string]*ProcessStation

	sched   *Scheduler
	ledger  *Ledger
	housing *HousingLedger

	place         chan PlaceRequest
	observerJoin  chan ObserverJoin
	observerLeave chan string
	stop          chan struct{}

	observers map[string]*observerState

	nextAgentNum atomic.Uint64
	nextTaskNum  atomic.Uint64
	nextNodeNum  atomic.Uint64
	nextSiteNum  atomic.Uint64
	nextBldgNum  atomic.Uint64

	// Per-tick event buffer, flushed into observer frames and the journal.
	events []protocol.Event

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil); writing happens off-thread.
	snapshotSink chan<- StateSnapshot

	backlogDrops uint64

	metrics atomic.Value // Metrics

	// newMover builds the movement provider for a freshly spawned agent.
	// Replaceable in tests.
	newMover func() Mover
}

type PlaceRequest struct {
	Building string
	Pos      Vec2
	Resp     chan error
}

func New(cfg Config, cats *catalogs.Catalogs) (*Colony, error) {
	if cats == nil {
		return nil, fmt.Errorf("missing catalogs")
	}
	cfg.Tuning = cfg.Tuning.WithDefaults()
	c := &Colony{
		cfg:           cfg,
		cats:          cats,
		agents:        map[string]*Agent{},
		nodes:         map[string]*ResourceNode{},
		sites:         map[string]*Site{},
		buildings:     map[string]*Building{},
		stations:      map[string]*ProcessStation{},
		sched:         NewScheduler(cfg.Tuning.BacklogCap),
		ledger:        NewLedger(),
		housing:       &HousingLedger{},
		place:         make(chan PlaceRequest, 64),
		observerJoin:  make(chan ObserverJoin, 16),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
		observers:     map[string]*observerState{},
		newMover:      func() Mover { return NewGridMover() },
	}
	c.metrics.Store(Metrics{})
	return c, nil
}

func (c *Colony) SetTickLogger(l TickLogger)              { c.tickLogger = l }
func (c *Colony) SetAuditLogger(l AuditLogger)            { c.auditLogger = l }
func (c *Colony) SetSnapshotSink(ch chan<- StateSnapshot) { c.snapshotSink = ch }
func (c *Colony) SetMoverFactory(factory func() Mover)    { c.newMover = factory }

func (c *Colony) Place() chan<- PlaceRequest          { return c.place }
func (c *Colony) ObserverJoinCh() chan<- ObserverJoin { return c.observerJoin }
func (c *Colony) ObserverLeaveCh() chan<- string      { return c.observerLeave }

func (c *Colony) CurrentTick() uint64 { return c.tick.Load() }

func (c *Colony) Params() protocol.ColonyParams {
	t := c.cfg.Tuning
	return protocol.ColonyParams{
		TickRateHz:      t.TickRateHz,
		ScanInterval:    t.ScanIntervalTicks,
		BacklogCap:      t.BacklogCap,
		MaxTaskDistance: t.MaxTaskDistance,
		CarryCapacity:   t.CarryCapacity,
		HaulBatch:       t.HaulBatch,
	}
}

func (c *Colony) CatalogInfo() protocol.CatalogInfo {
	return protocol.CatalogInfo{
		ResourcesDigest: c.cats.Resources.Digest,
		BuildingsDigest: c.cats.Buildings.Digest,
	}
}

func (c *Colony) newAgentID() string { return fmt.Sprintf("A%04d", c.nextAgentNum.Add(1)) }
func (c *Colony) newTaskID() string  { return fmt.Sprintf("T%06d", c.nextTaskNum.Add(1)) }
func (c *Colony) newNodeID() string  { return fmt.Sprintf("N%04d", c.nextNodeNum.Add(1)) }
func (c *Colony) newSiteID() string  { return fmt.Sprintf("S%04d", c.nextSiteNum.Add(1)) }
func (c *Colony) newBldgID() string  { return fmt.Sprintf("B%04d", c.nextBldgNum.Add(1)) }

func (c *Colony) sortedAgents() []*Agent {
	out := make([]*Agent, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Colony) sortedNodes() []*ResourceNode {
	out := make([]*ResourceNode, 0, len(c.nodes))
	for _, n := range c.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Colony) sortedSites() []*Site {
	out := make([]*Site, 0, len(c.sites))
	for _, s := range c.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Colony) sortedStations() []*ProcessStation {
	out := make([]*ProcessStation, 0, len(c.stations))
	for _, s := range c.stations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Colony) sortedBuildings() []*Building {
	out := make([]*Building, 0, len(c.buildings))
	for _, b := range c.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SpawnAgent creates a worker. Used by initial seeding and the growth loop.
func (c *Colony) SpawnAgent(name string, role tasks.Role, pos Vec2) *Agent {
	a := &Agent{
		ID:       c.newAgentID(),
		Name:     name,
		Role:     role,
		State:    AgentIdle,
		Pos:      pos,
		Capacity: c.cfg.Tuning.CarryCapacity,
		mover:    c.newMover(),
	}
	c.agents[a.ID] = a
	c.pushEvent(protocol.Event{"t": c.tick.Load(), "type": "AGENT_SPAWNED", "agent_id": a.ID, "name": name, "role": string(role), "pos": pos.ToArray()})
	return a
}

// SeedNode places a resource node from its catalog definition. Used by the
// scenario loader and tests; node placement policy itself lives outside the
// core.
func (c *Colony) SeedNode(resource string, pos Vec2) (*ResourceNode, error) {
	def, ok := c.cats.Resources.ByID[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	n := &ResourceNode{
		ID:           c.newNodeID(),
		Resource:     def.ID,
		Pos:          pos,
		MaxHarvests:  def.MaxHarvests,
		Yield:        def.Yield,
		HarvestTicks: def.HarvestTicks,
		State:        NodeAvailable,
	}
	c.nodes[n.ID] = n
	return n, nil
}

// SeedStock credits the ledger directly (initial scenario stock).
func (c *Colony) SeedStock(resource string, n int) { c.ledger.Add(resource, n) }

// SeedHousing grants initial housing capacity and marks it occupied by the
// seeded agents.
func (c *Colony) SeedHousing(capacity, occupied int) {
	c.housing.Capacity += capacity
	c.housing.Occupied += occupied
}
