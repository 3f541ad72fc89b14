package colony

import (
	"context"
	"time"
)

func (c *Colony) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingPlaces []PlaceRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case req := <-c.place:
			pendingPlaces = append(pendingPlaces, req)
		case req := <-c.observerJoin:
			c.handleObserverJoin(req)
		case id := <-c.observerLeave:
			c.handleObserverLeave(id)
		case <-ticker.C:
			c.stepInternal(pendingPlaces)
			pendingPlaces = pendingPlaces[:0]
		}
	}
}

func (c *Colony) Stop() { close(c.stop) }

// StepOnce advances the colony by a single tick with the same ordering as
// the server loop. Intended for deterministic replays and tests.
func (c *Colony) StepOnce(places []PlaceRequest) (tick uint64, digest string) {
	tick = c.tick.Load()
	c.stepInternal(places)
	return tick, c.stateDigest(tick)
}

func (c *Colony) ID() string {
	if c == nil {
		return ""
	}
	return c.cfg.ID
}

func (c *Colony) TickRateHz() int {
	if c == nil {
		return 0
	}
	return c.cfg.Tuning.TickRateHz
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
