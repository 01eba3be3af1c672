package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T, p Predictor, previews PreviewStore) *Registry {
	t.Helper()
	return NewRegistry(p, previews, time.Minute, zaptest.NewLogger(t), WithTickInterval(5*time.Millisecond))
}

func TestRegistryCreateGetRemove(t *testing.T) {
	previews := NewMemoryPreviews()
	r := newTestRegistry(t, newBlockingPredictor(), previews)

	session := r.Create()
	got, err := r.Get(session.ID())
	if err != nil || got != session {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if err := session.SelectFile(scan); err != nil {
		t.Fatalf("SelectFile returned error: %v", err)
	}

	if err := r.Remove(session.ID()); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if previews.Len() != 0 {
		t.Fatalf("expected preview to be released on remove")
	}
	if _, err := r.Get(session.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := r.Remove(session.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second remove, got %v", err)
	}
}

func TestRegistryEvictIdle(t *testing.T) {
	p := newBlockingPredictor()
	previews := NewMemoryPreviews()
	r := newTestRegistry(t, p, previews)

	idle := r.Create()
	if err := idle.SelectFile(scan); err != nil {
		t.Fatalf("SelectFile returned error: %v", err)
	}

	busy := r.Create()
	if err := busy.SelectFile(scan); err != nil {
		t.Fatalf("SelectFile returned error: %v", err)
	}
	if err := busy.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	<-p.started

	if n := r.evictIdle(time.Now()); n != 0 {
		t.Fatalf("fresh sessions must not be evicted, got %d", n)
	}

	if n := r.evictIdle(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, err := r.Get(idle.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("idle session should be gone, got %v", err)
	}
	if _, err := r.Get(busy.ID()); err != nil {
		t.Fatalf("processing session must survive eviction: %v", err)
	}
	if previews.Len() != 1 {
		t.Fatalf("expected only the busy preview to remain, got %d", previews.Len())
	}

	close(p.release)
	waitFor(t, func() bool { return busy.State().Phase == PhaseSucceeded })
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	r := newTestRegistry(t, newBlockingPredictor(), NewMemoryPreviews())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
