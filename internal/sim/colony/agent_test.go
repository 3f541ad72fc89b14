package colony

import "testing"

func TestAddToInventoryClampsToCapacity(t *testing.T) {
	a := &Agent{Capacity: 20}
	if got := a.AddToInventory("WOOD", 15); got != 15 {
		t.Fatalf("first add = %d, want 15", got)
	}
	if got := a.AddToInventory("WOOD", 10); got != 5 {
		t.Fatalf("clamped add = %d, want 5", got)
	}
	if a.CarryCount != 20 {
		t.Fatalf("carry = %d, want 20 (capacity)", a.CarryCount)
	}
	if got := a.AddToInventory("WOOD", 1); got != 0 {
		t.Fatalf("add at capacity = %d, want 0", got)
	}
}

func TestAddToInventorySingleKind(t *testing.T) {
	a := &Agent{Capacity: 20}
	a.AddToInventory("WOOD", 5)
	if got := a.AddToInventory("STONE", 5); got != 0 {
		t.Fatalf("mixed-kind add = %d, want 0", got)
	}
	if a.SpaceFor("STONE") != 0 {
		t.Fatalf("SpaceFor other kind = %d, want 0", a.SpaceFor("STONE"))
	}
	if a.SpaceFor("WOOD") != 15 {
		t.Fatalf("SpaceFor same kind = %d, want 15", a.SpaceFor("WOOD"))
	}
}

func TestClearInventory(t *testing.T) {
	a := &Agent{Capacity: 20}
	a.AddToInventory("FOOD", 7)
	res, n := a.ClearInventory()
	if res != "FOOD" || n != 7 {
		t.Fatalf("ClearInventory = %s/%d, want FOOD/7", res, n)
	}
	if a.Carry != "" || a.CarryCount != 0 {
		t.Fatalf("inventory not cleared: %s/%d", a.Carry, a.CarryCount)
	}
}

func TestGridMoverStepsDominantAxis(t *testing.T) {
	m := NewGridMover()
	m.SetDestination(Vec2{X: 3, Y: 1})

	pos := Vec2{}
	pos = m.NextStep(pos)
	if pos != (Vec2{X: 1, Y: 0}) {
		t.Fatalf("first step = %+v, want x first", pos)
	}
	for i := 0; i < 10 && !m.Arrived(pos); i++ {
		pos = m.NextStep(pos)
	}
	if !m.Arrived(pos) {
		t.Fatalf("never arrived, stuck at %+v", pos)
	}
	if manhattan(pos, Vec2{X: 3, Y: 1}) > 1 {
		t.Fatalf("arrival outside tolerance: %+v", pos)
	}
}
