package colony

import (
	"testing"

	"emberhold/internal/sim/tasks"
)

func pendingTask(id string, prio int, pos Vec2, roles ...tasks.Role) *tasks.Task {
	if len(roles) == 0 {
		roles = []tasks.Role{tasks.RoleNone}
	}
	return &tasks.Task{
		TaskID:   id,
		Kind:     tasks.KindGather,
		State:    tasks.StatePending,
		Priority: prio,
		Pos:      vToTask(pos),
		Roles:    roles,
	}
}

func TestFindBestForPrefersPriorityOverDistance(t *testing.T) {
	s := NewScheduler(16)
	far := pendingTask("T000001", 2, Vec2{X: 50, Y: 0})
	near := pendingTask("T000002", 1, Vec2{X: 3, Y: 0})
	if err := s.Add(far); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(near); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := s.FindBestFor(tasks.RoleNone, Vec2{}, 0, nil)
	if got == nil || got.TaskID != "T000001" {
		t.Fatalf("want high-priority task T000001, got %+v", got)
	}
}

func TestFindBestForBreaksPriorityTiesByDistance(t *testing.T) {
	s := NewScheduler(16)
	far := pendingTask("T000001", 3, Vec2{X: 40, Y: 0})
	near := pendingTask("T000002", 3, Vec2{X: 4, Y: 0})
	_ = s.Add(far)
	_ = s.Add(near)

	got := s.FindBestFor(tasks.RoleNone, Vec2{}, 0, nil)
	if got == nil || got.TaskID != "T000002" {
		t.Fatalf("want nearer task T000002, got %+v", got)
	}
}

func TestFindBestForHonorsRadiusAndRole(t *testing.T) {
	s := NewScheduler(16)
	outOfRange := pendingTask("T000001", 9, Vec2{X: 100, Y: 0})
	wrongRole := pendingTask("T000002", 9, Vec2{X: 1, Y: 0}, tasks.RoleMiner)
	ok := pendingTask("T000003", 1, Vec2{X: 2, Y: 0}, tasks.RoleLumberjack)
	_ = s.Add(outOfRange)
	_ = s.Add(wrongRole)
	_ = s.Add(ok)

	got := s.FindBestFor(tasks.RoleLumberjack, Vec2{}, 50, nil)
	if got == nil || got.TaskID != "T000003" {
		t.Fatalf("want T000003, got %+v", got)
	}
	if s.FindBestFor(tasks.RoleFarmer, Vec2{}, 50, nil) != nil {
		t.Fatalf("farmer should match nothing")
	}
}

func TestFindBestForSkipsInvalid(t *testing.T) {
	s := NewScheduler(16)
	bad := pendingTask("T000001", 9, Vec2{X: 1, Y: 0})
	good := pendingTask("T000002", 1, Vec2{X: 1, Y: 0})
	_ = s.Add(bad)
	_ = s.Add(good)

	got := s.FindBestFor(tasks.RoleNone, Vec2{}, 0, func(t *tasks.Task) bool {
		return t.TaskID != "T000001"
	})
	if got == nil || got.TaskID != "T000002" {
		t.Fatalf("want T000002 after validity filter, got %+v", got)
	}
}

func TestPendingForFiltersStateAndRole(t *testing.T) {
	s := NewScheduler(16)
	mine := pendingTask("T000001", 1, Vec2{}, tasks.RoleMiner)
	chop := pendingTask("T000002", 1, Vec2{}, tasks.RoleLumberjack)
	claimed := pendingTask("T000003", 1, Vec2{}, tasks.RoleLumberjack)
	claimed.TryAssign("A0001")
	_ = s.Add(mine)
	_ = s.Add(chop)
	_ = s.Add(claimed)

	got := s.PendingFor(tasks.RoleLumberjack)
	if len(got) != 1 || got[0].TaskID != "T000002" {
		t.Fatalf("PendingFor(lumberjack) = %+v", got)
	}
	if n := len(s.PendingFor(tasks.RoleMiner)); n != 1 {
		t.Fatalf("PendingFor(miner) = %d tasks, want 1", n)
	}
	if s.PendingFor(tasks.RoleFarmer) != nil {
		t.Fatalf("farmer should have no pending work")
	}
}

func TestBacklogCapDropsNew(t *testing.T) {
	s := NewScheduler(2)
	if err := s.Add(pendingTask("T000001", 1, Vec2{})); err != nil {
		t.Fatalf("Add 1: %v", err)
	}
	if err := s.Add(pendingTask("T000002", 1, Vec2{})); err != nil {
		t.Fatalf("Add 2: %v", err)
	}
	if err := s.Add(pendingTask("T000003", 1, Vec2{})); err != ErrBacklogFull {
		t.Fatalf("want ErrBacklogFull, got %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("backlog size changed on refusal: %d", s.Len())
	}
	if s.Get("T000003") != nil {
		t.Fatalf("refused task must not be registered")
	}
}

func TestCleanupFinishedSweepsTerminalOnly(t *testing.T) {
	s := NewScheduler(16)
	live := pendingTask("T000001", 1, Vec2{})
	done := pendingTask("T000002", 1, Vec2{})
	done.Complete()
	cancelled := pendingTask("T000003", 1, Vec2{})
	cancelled.Cancel()
	_ = s.Add(live)
	_ = s.Add(done)
	_ = s.Add(cancelled)

	if removed := s.CleanupFinished(); removed != 2 {
		t.Fatalf("want 2 removed, got %d", removed)
	}
	if s.Get("T000001") == nil {
		t.Fatalf("live task swept")
	}
	if s.Len() != 1 {
		t.Fatalf("want 1 task left, got %d", s.Len())
	}
}
