package colony

import (
	"testing"

	"emberhold/internal/sim/catalogs"
	"emberhold/internal/sim/tuning"
)

// testTuning is deliberately fast: agents scan every tick and sweeps run
// often so tests converge in a few hundred ticks at most.
func testTuning() tuning.Tuning {
	t := tuning.Default()
	t.ScanIntervalTicks = 1
	t.SweepIntervalTicks = 5
	t.StuckTimeoutTicks = 50
	t.Growth.IntervalTicks = 10
	return t
}

func newTestColony(t *testing.T, tune tuning.Tuning) *Colony {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	c, err := New(Config{
		ID:           "test_colony",
		Seed:         42,
		Tuning:       tune,
		HubPos:       Vec2{X: 0, Y: 0},
		StockpilePos: Vec2{X: 2, Y: 0},
	}, cats)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// stepN runs n ticks without external placement input.
func stepN(c *Colony, n int) {
	for i := 0; i < n; i++ {
		c.stepInternal(nil)
	}
}
