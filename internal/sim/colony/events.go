package colony

import "emberhold/internal/protocol"

func (c *Colony) pushEvent(ev protocol.Event) {
	c.events = append(c.events, ev)
}

func taskFail(nowTick uint64, taskID, code, message string) protocol.Event {
	return protocol.Event{"t": nowTick, "type": "TASK_FAIL", "task_id": taskID, "code": code, "message": message}
}

func taskDone(nowTick uint64, taskID, kind string) protocol.Event {
	return protocol.Event{"t": nowTick, "type": "TASK_DONE", "task_id": taskID, "kind": kind}
}

func (c *Colony) eventAgentState(nowTick uint64, a *Agent) {
	ev := protocol.Event{"t": nowTick, "type": "AGENT_STATE", "agent_id": a.ID, "state": string(a.State)}
	if a.Task != nil {
		ev["task_id"] = a.Task.TaskID
	}
	c.pushEvent(ev)
}
