package colony

import (
	"encoding/json"

	"emberhold/internal/protocol"
)

// ObserverJoin registers a read-only presentation client. The colony sends a
// full SNAPSHOT on join, then one FRAME per tick.
type ObserverJoin struct {
	ID  string
	Out chan []byte
}

type observerState struct {
	Out chan []byte
}

func (c *Colony) handleObserverJoin(req ObserverJoin) {
	if req.ID == "" || req.Out == nil {
		return
	}
	c.observers[req.ID] = &observerState{Out: req.Out}

	nowTick := c.tick.Load()
	snap := protocol.SnapshotMsg{Type: protocol.TypeSnapshot, Tick: nowTick, State: c.ExportSnapshot(nowTick)}
	if b, err := json.Marshal(snap); err == nil {
		sendLatest(req.Out, b)
	}
}

func (c *Colony) handleObserverLeave(id string) {
	delete(c.observers, id)
}

func (c *Colony) broadcastFrame(nowTick uint64, digest string) {
	if len(c.observers) == 0 {
		return
	}
	frame := protocol.FrameMsg{
		Type:   protocol.TypeFrame,
		Tick:   nowTick,
		Digest: digest,
		Agents: c.agentSummaries(),
	}
	if len(c.events) > 0 {
		frame.Events = append(frame.Events, c.events...)
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	for _, obs := range c.observers {
		sendLatest(obs.Out, b)
	}
}

func (c *Colony) agentSummaries() []protocol.AgentSummary {
	out := make([]protocol.AgentSummary, 0, len(c.agents))
	for _, a := range c.sortedAgents() {
		s := protocol.AgentSummary{
			ID:    a.ID,
			Role:  string(a.Role),
			State: string(a.State),
			Pos:   a.Pos.ToArray(),
		}
		if a.CarryCount > 0 {
			s.Carry = a.Carry
			s.Count = a.CarryCount
		}
		if a.Task != nil {
			s.Task = a.Task.TaskID
		}
		out = append(out, s)
	}
	return out
}
