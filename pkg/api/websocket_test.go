package api

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWSHubStop(t *testing.T) {
	h := newWSHub(zap.NewNop().Sugar())

	stopped := make(chan struct{})
	go func() {
		h.run()
		close(stopped)
	}()

	h.stop()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub loop did not stop")
	}

	// Idempotent; a second stop must not panic.
	h.stop()
}

func TestWSHubBroadcastAfterStop(t *testing.T) {
	h := newWSHub(zap.NewNop().Sugar())
	go h.run()
	h.stop()

	// With the loop gone, broadcast may only buffer or drop, never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1024; i++ {
			h.broadcast([]byte("frame"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}
