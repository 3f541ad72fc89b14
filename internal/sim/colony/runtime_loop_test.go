package colony

import (
	"context"
	"testing"
	"time"

	"emberhold/internal/protocol"
)

// Run must serve observer joins between ticks and exit cleanly on Stop.
func TestRunServesObserversAndStops(t *testing.T) {
	c := newTestColony(t, testTuning())
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	out := make(chan []byte, 4)
	c.ObserverJoinCh() <- ObserverJoin{ID: "obs1", Out: out}
	select {
	case b := <-out:
		base, err := protocol.DecodeBase(b)
		if err != nil || base.Type != protocol.TypeSnapshot {
			t.Fatalf("first message type = %q (err %v), want SNAPSHOT", base.Type, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no snapshot after observer join")
	}

	c.ObserverLeaveCh() <- "obs1"
	c.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	c := newTestColony(t, testTuning())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}
