package colony

import "emberhold/internal/protocol"

// TickLogEntry is one journal line per tick: the external inputs applied
// this tick, everything that happened, and the state digest for replay
// verification.
type TickLogEntry struct {
	Tick   uint64           `json:"tick"`
	Places []PlacedInput    `json:"places,omitempty"`
	Events []protocol.Event `json:"events,omitempty"`
	Digest string           `json:"digest"`
}

// PlacedInput is a placement request as recorded in the journal.
type PlacedInput struct {
	Building string `json:"building"`
	Pos      [2]int `json:"pos"`
}

// AuditEntry records a resource movement (withdraw, deposit, deliver, drop).
type AuditEntry struct {
	Tick     uint64 `json:"tick"`
	Actor    string `json:"actor"`
	Action   string `json:"action"` // e.g. "WITHDRAW"
	Resource string `json:"resource,omitempty"`
	Count    int    `json:"count,omitempty"`
	Ref      string `json:"ref,omitempty"` // task/site/node id
	Reason   string `json:"reason,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

func (c *Colony) audit(nowTick uint64, actor, action, resource string, count int, ref, reason string) {
	if c.auditLogger == nil {
		return
	}
	_ = c.auditLogger.WriteAudit(AuditEntry{
		Tick:     nowTick,
		Actor:    actor,
		Action:   action,
		Resource: resource,
		Count:    count,
		Ref:      ref,
		Reason:   reason,
	})
}
