package colony

import (
	"testing"

	"emberhold/internal/sim/tasks"
)

func TestGrowthSpawnsWhenThresholdMet(t *testing.T) {
	c := newTestColony(t, testTuning())
	c.SeedHousing(4, 0)
	c.housing.Growth = c.cfg.Tuning.Growth.Threshold + 3

	interval := uint64(c.cfg.Tuning.Growth.IntervalTicks)
	c.systemGrowth(interval)

	if len(c.agents) != 1 {
		t.Fatalf("agents = %d, want 1 settler", len(c.agents))
	}
	if c.housing.Occupied != 1 {
		t.Fatalf("occupied = %d, want 1", c.housing.Occupied)
	}
	if c.housing.Growth != 3 {
		t.Fatalf("growth accumulator = %d, want remainder 3", c.housing.Growth)
	}
	for _, a := range c.agents {
		if a.Role != tasks.RoleNone {
			t.Fatalf("settler role = %s, want NONE", a.Role)
		}
	}
}

func TestGrowthGatedByHousing(t *testing.T) {
	c := newTestColony(t, testTuning())
	c.SeedHousing(2, 2)
	c.housing.Growth = c.cfg.Tuning.Growth.Threshold * 2

	c.systemGrowth(uint64(c.cfg.Tuning.Growth.IntervalTicks))

	if len(c.agents) != 0 {
		t.Fatalf("spawned with no free housing")
	}
	if c.housing.Growth != c.cfg.Tuning.Growth.Threshold*2 {
		t.Fatalf("accumulator consumed despite gate: %d", c.housing.Growth)
	}
}

func TestGrowthEmitsSingleHaul(t *testing.T) {
	c := newTestColony(t, testTuning())
	c.SeedHousing(4, 0)
	c.SeedStock("FOOD", 30)

	interval := uint64(c.cfg.Tuning.Growth.IntervalTicks)
	c.systemGrowth(interval)

	var hauls []*tasks.Task
	for _, task := range c.sched.sorted() {
		if task.Kind == tasks.KindGrowthHaul {
			hauls = append(hauls, task)
		}
	}
	if len(hauls) != 1 {
		t.Fatalf("growth hauls = %d, want 1", len(hauls))
	}
	h := hauls[0]
	if h.Resource != "FOOD" || h.Amount != c.cfg.Tuning.HaulBatch {
		t.Fatalf("haul payload wrong: %+v", h)
	}
	if h.SourceID != PlaceStockpile || h.DestID != PlaceHub {
		t.Fatalf("haul endpoints wrong: %+v", h)
	}
	if h.Priority != c.cfg.Tuning.Growth.HaulPriority {
		t.Fatalf("haul priority = %d, want %d", h.Priority, c.cfg.Tuning.Growth.HaulPriority)
	}

	// The open haul suppresses further emissions.
	c.systemGrowth(interval * 2)
	count := 0
	for _, task := range c.sched.sorted() {
		if task.Kind == tasks.KindGrowthHaul {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("duplicate growth haul emitted: %d", count)
	}
}

func TestGrowthHaulSkippedWhenStockShort(t *testing.T) {
	c := newTestColony(t, testTuning())
	c.SeedHousing(4, 0)
	c.SeedStock("FOOD", c.cfg.Tuning.HaulBatch-1)

	c.systemGrowth(uint64(c.cfg.Tuning.Growth.IntervalTicks))

	for _, task := range c.sched.sorted() {
		if task.Kind == tasks.KindGrowthHaul {
			t.Fatalf("haul emitted without covering stock")
		}
	}
}

// Growth loop end to end: a hauler ferries food to the hub until a settler
// spawns.
func TestGrowthLoopEndToEnd(t *testing.T) {
	tune := testTuning()
	tune.Growth.Threshold = 20
	c := newTestColony(t, tune)
	c.SeedHousing(4, 1)
	c.SeedStock("FOOD", 40)
	c.SpawnAgent("dale", tasks.RoleHauler, Vec2{X: 2, Y: 1})

	for i := 0; i < 1500 && len(c.agents) < 2; i++ {
		c.stepInternal(nil)
	}
	if len(c.agents) != 2 {
		t.Fatalf("settler never spawned")
	}
	if c.housing.Occupied != 2 {
		t.Fatalf("occupied = %d, want 2", c.housing.Occupied)
	}
}
