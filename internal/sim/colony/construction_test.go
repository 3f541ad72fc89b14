package colony

import (
	"testing"

	"emberhold/internal/sim/tasks"
)

func TestPlaceBuildingChecksAffordability(t *testing.T) {
	c := newTestColony(t, testTuning())
	if _, err := c.PlaceBuilding("HOUSE", Vec2{X: 0, Y: 3}); err == nil {
		t.Fatalf("placed a HOUSE with an empty stockpile")
	}
	if len(c.sites) != 0 {
		t.Fatalf("refused placement created a site")
	}

	c.SeedStock("WOOD", 40)
	c.SeedStock("STONE", 19)
	if _, err := c.PlaceBuilding("HOUSE", Vec2{X: 0, Y: 3}); err == nil {
		t.Fatalf("placed a HOUSE one STONE short")
	}
}

func TestPlaceBuildingEmitsBatchedHauls(t *testing.T) {
	c := newTestColony(t, testTuning())
	c.SeedStock("WOOD", 40)
	c.SeedStock("STONE", 20)

	site, err := c.PlaceBuilding("HOUSE", Vec2{X: 0, Y: 3})
	if err != nil {
		t.Fatalf("PlaceBuilding: %v", err)
	}

	// Affordability is a check, not a deduction; withdrawal happens per haul.
	if c.ledger.Get("WOOD") != 40 || c.ledger.Get("STONE") != 20 {
		t.Fatalf("placement deducted the ledger: wood=%d stone=%d", c.ledger.Get("WOOD"), c.ledger.Get("STONE"))
	}

	// Cost WOOD:40 STONE:20 at batch 10 means 4+2 haul tasks.
	var wood, stone, total int
	for _, task := range c.sched.sorted() {
		if task.Kind != tasks.KindHaul || task.SiteID != site.ID {
			continue
		}
		total += task.Amount
		switch task.Resource {
		case "WOOD":
			wood++
		case "STONE":
			stone++
		}
		if task.SourceID != PlaceStockpile || task.DestID != site.ID {
			t.Fatalf("haul endpoints wrong: %+v", task)
		}
	}
	if wood != 4 || stone != 2 {
		t.Fatalf("haul tasks wood=%d stone=%d, want 4/2", wood, stone)
	}
	if total != 60 {
		t.Fatalf("haul coverage = %d, want 60", total)
	}
}

func TestEnsureSiteHaulsDoesNotDuplicateInflight(t *testing.T) {
	c := newTestColony(t, testTuning())
	c.SeedStock("WOOD", 40)
	c.SeedStock("STONE", 20)

	site, err := c.PlaceBuilding("HOUSE", Vec2{X: 0, Y: 3})
	if err != nil {
		t.Fatalf("PlaceBuilding: %v", err)
	}
	before := c.sched.Len()
	c.ensureSiteHauls(site, 1)
	if c.sched.Len() != before {
		t.Fatalf("re-run stacked extra hauls: %d -> %d", before, c.sched.Len())
	}
}

func TestSiteDeliveryClampsAndFlipsOneWay(t *testing.T) {
	c := newTestColony(t, testTuning())
	site := &Site{
		ID:        "S0001",
		Building:  "HOUSE",
		Pos:       Vec2{X: 0, Y: 3},
		Required:  map[string]int{"WOOD": 40, "STONE": 20},
		Delivered: map[string]int{},
	}
	c.sites[site.ID] = site

	if got := site.DeliverResource("WOOD", 35); got != 35 {
		t.Fatalf("delivery accepted %d, want 35", got)
	}
	if got := site.DeliverResource("WOOD", 10); got != 5 {
		t.Fatalf("overdelivery accepted %d, want clamp to 5", got)
	}
	if got := site.DeliverResource("WOOD", 10); got != 0 {
		t.Fatalf("delivery to a met need accepted %d", got)
	}
	if got := site.DeliverResource("PLANK", 10); got != 0 {
		t.Fatalf("delivery of unneeded resource accepted %d", got)
	}

	c.maybeFinishDelivery(site, 1)
	if site.FullyDelivered {
		t.Fatalf("fully delivered with STONE outstanding")
	}

	site.DeliverResource("STONE", 20)
	c.maybeFinishDelivery(site, 2)
	if !site.FullyDelivered || !site.BuildStarted {
		t.Fatalf("site not ready after full delivery: delivered=%v started=%v", site.FullyDelivered, site.BuildStarted)
	}
	build := c.sched.Get(site.BuildTaskID)
	if build == nil || build.Kind != tasks.KindBuild || build.DurationTicks != 60 {
		t.Fatalf("build task wrong: %+v", build)
	}

	// The ready flag is one-way; a second pass must not emit another build.
	before := c.sched.Len()
	c.maybeFinishDelivery(site, 3)
	if c.sched.Len() != before {
		t.Fatalf("duplicate build task emitted")
	}
}

func TestCompleteBuildGrantsHousingAndStations(t *testing.T) {
	c := newTestColony(t, testTuning())

	house := &Site{
		ID: "S0001", Building: "HOUSE", Pos: Vec2{X: 0, Y: 3},
		Required: map[string]int{}, Delivered: map[string]int{},
		FullyDelivered: true,
	}
	c.sites[house.ID] = house
	c.completeBuild(&tasks.Task{TaskID: "T000001", Kind: tasks.KindBuild, State: tasks.StateInProgress, SiteID: house.ID}, "A0001", 1)
	if c.housing.Capacity != 4 {
		t.Fatalf("housing capacity = %d, want 4", c.housing.Capacity)
	}
	if len(c.sites) != 0 || len(c.buildings) != 1 {
		t.Fatalf("site/building bookkeeping wrong: sites=%d buildings=%d", len(c.sites), len(c.buildings))
	}

	mill := &Site{
		ID: "S0002", Building: "SAWMILL", Pos: Vec2{X: 4, Y: 4},
		Required: map[string]int{}, Delivered: map[string]int{},
		FullyDelivered: true,
	}
	c.sites[mill.ID] = mill
	c.completeBuild(&tasks.Task{TaskID: "T000002", Kind: tasks.KindBuild, State: tasks.StateInProgress, SiteID: mill.ID}, "A0001", 2)
	if len(c.stations) != 1 {
		t.Fatalf("workshop did not register a station")
	}
	for _, st := range c.stations {
		if st.Output != "PLANK" || st.CycleTicks != 20 || st.YieldPerCycle != 4 || !st.Active {
			t.Fatalf("station def wrong: %+v", st)
		}
	}
}

func TestConstructionPipelineEndToEnd(t *testing.T) {
	tune := testTuning()
	c := newTestColony(t, tune)
	c.SeedStock("WOOD", 40)
	c.SeedStock("STONE", 20)
	c.SpawnAgent("dale", tasks.RoleNone, Vec2{X: 2, Y: 1})

	if _, err := c.PlaceBuilding("HOUSE", Vec2{X: 0, Y: 3}); err != nil {
		t.Fatalf("PlaceBuilding: %v", err)
	}

	for i := 0; i < 2000 && len(c.buildings) == 0; i++ {
		c.stepInternal(nil)
	}
	if len(c.buildings) != 1 {
		t.Fatalf("house never completed")
	}
	if c.housing.Capacity != 4 {
		t.Fatalf("housing capacity = %d, want 4", c.housing.Capacity)
	}
	if c.ledger.Get("WOOD") != 0 || c.ledger.Get("STONE") != 0 {
		t.Fatalf("cost not fully withdrawn: wood=%d stone=%d", c.ledger.Get("WOOD"), c.ledger.Get("STONE"))
	}
	if len(c.sites) != 0 {
		t.Fatalf("site survived completion")
	}
}
