package protocol

// Error codes carried on TASK_FAIL / REFUSED events.
const (
	// Target became unusable (depleted node, satisfied site, inactive station).
	ErrInvalidTarget = "E_INVALID_TARGET"

	// Reservation or assignment race lost.
	ErrConflict = "E_CONFLICT"

	// Capacity exhaustion.
	ErrBacklogFull = "E_BACKLOG_FULL"
	ErrNoResource  = "E_NO_RESOURCE"

	// Delivery rejected at the end of a haul leg.
	ErrDelivery = "E_DELIVERY"

	// Travel leg made no progress for the configured timeout.
	ErrStuck = "E_STUCK"

	ErrBadRequest = "E_BAD_REQUEST"
)

var knownCodes = map[string]struct{}{
	ErrInvalidTarget: {},
	ErrConflict:      {},
	ErrBacklogFull:   {},
	ErrNoResource:    {},
	ErrDelivery:      {},
	ErrStuck:         {},
	ErrBadRequest:    {},
}

func KnownCode(code string) bool {
	_, ok := knownCodes[code]
	return ok
}
