package remote

import (
	"context"
	"testing"
	"time"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/events"
	"github.com/skywaveads/erp-core/internal/models"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStartConnectsInBackground(t *testing.T) {
	mem := NewMemoryStore()
	s := NewSupervisor(func(context.Context) (Store, error) {
		return mem, nil
	}, nil)

	s.Start(context.Background())
	waitFor(t, s.IsOnline)

	if s.Store() == nil {
		t.Fatal("Store returned nil while online")
	}
}

func TestStartReturnsImmediatelyWhenRemoteHangs(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := NewSupervisor(func(ctx context.Context) (Store, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil, errors.New(errors.ErrRemoteUnavailable, "unreachable")
	}, nil)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start blocked on a hanging connection")
	}
	if s.IsOnline() {
		t.Error("supervisor online before probe finished")
	}
}

func TestFailedProbeStaysOfflineAndRetries(t *testing.T) {
	attempts := 0
	s := NewSupervisor(func(context.Context) (Store, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New(errors.ErrRemoteUnavailable, "refused")
		}
		return NewMemoryStore(), nil
	}, nil)

	s.Start(context.Background())
	waitFor(t, func() bool { return s.LastError() != nil })
	if s.IsOnline() {
		t.Fatal("online after failed probe")
	}
	if s.Store() != nil {
		t.Fatal("Store returned a connection while offline")
	}

	// A second Start retries the connection.
	s.Start(context.Background())
	waitFor(t, s.IsOnline)
}

func TestMarkOfflinePublishesStateChange(t *testing.T) {
	bus := events.NewBus()
	states := make(chan string, 4)
	bus.Subscribe(events.ConnChanged, func(state string) { states <- state })

	s := NewSupervisor(func(context.Context) (Store, error) {
		return NewMemoryStore(), nil
	}, bus)

	s.Start(context.Background())
	if got := <-states; got != "online" {
		t.Fatalf("first state = %q, want online", got)
	}

	s.MarkOffline()
	if got := <-states; got != "offline" {
		t.Fatalf("second state = %q, want offline", got)
	}
	// Repeated MarkOffline does not publish again.
	s.MarkOffline()
	select {
	case got := <-states:
		t.Fatalf("unexpected state %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	mem := NewMemoryStore()
	ctx := context.Background()

	id, err := mem.Insert(ctx, "clients", models.Document{"name": "Acme"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == "" {
		t.Fatal("Insert returned empty id")
	}

	doc, ok := mem.Get("clients", id)
	if !ok || doc["name"] != "Acme" {
		t.Fatalf("stored doc = %v", doc)
	}

	mem.SetOffline(true)
	if _, err := mem.Insert(ctx, "clients", models.Document{}); !errors.Is(err, errors.ErrRemoteUnavailable) {
		t.Errorf("offline insert error = %v", err)
	}
}
