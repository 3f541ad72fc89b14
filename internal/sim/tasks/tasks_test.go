package tasks

import "testing"

func TestTask_AssignUnassignRoundTrip(t *testing.T) {
	task := &Task{TaskID: "T000001", Kind: KindGather, State: StatePending}

	if task.TryAssign("") {
		t.Fatalf("TryAssign with empty agent id should fail")
	}
	if !task.TryAssign("A1") {
		t.Fatalf("TryAssign on pending task should succeed")
	}
	if task.State != StateInProgress || task.AssignedTo != "A1" {
		t.Fatalf("after assign: state=%s assigned=%q", task.State, task.AssignedTo)
	}
	if task.TryAssign("A2") {
		t.Fatalf("second TryAssign should fail while in progress")
	}

	task.Unassign()
	if task.State != StatePending || task.AssignedTo != "" {
		t.Fatalf("after unassign: state=%s assigned=%q", task.State, task.AssignedTo)
	}
}

func TestTask_TerminalStatesAreSticky(t *testing.T) {
	task := &Task{TaskID: "T000002", Kind: KindHaul, State: StatePending}
	if !task.TryAssign("A1") {
		t.Fatalf("assign failed")
	}
	if !task.Complete() {
		t.Fatalf("complete failed")
	}
	if task.AssignedTo != "" {
		t.Fatalf("completed task should not keep an assignee")
	}
	if task.Cancel() {
		t.Fatalf("cancel after complete should be a no-op")
	}
	if task.TryAssign("A2") {
		t.Fatalf("assign after complete should fail")
	}
	task.Unassign()
	if task.State != StateCompleted {
		t.Fatalf("unassign must not reopen a terminal task, got %s", task.State)
	}

	c := &Task{TaskID: "T000003", Kind: KindBuild, State: StatePending}
	if !c.Cancel() {
		t.Fatalf("cancel of pending task failed")
	}
	if c.Cancel() {
		t.Fatalf("second cancel should report no-op")
	}
}

func TestTask_EligibleFor(t *testing.T) {
	task := &Task{Roles: []Role{RoleHauler, RoleNone}}
	if !task.EligibleFor(RoleHauler) || !task.EligibleFor(RoleNone) {
		t.Fatalf("expected hauler and none to be eligible")
	}
	if task.EligibleFor(RoleMiner) {
		t.Fatalf("miner should not be eligible")
	}
}
