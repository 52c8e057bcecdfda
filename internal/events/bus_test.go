package events

import "testing"

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBus()

	var got []string
	b.Subscribe(EntityChanged, func(payload string) {
		got = append(got, payload)
	})
	b.Subscribe(EntityChanged, func(payload string) {
		got = append(got, payload+"-second")
	})

	b.Publish(EntityChanged, "clients")

	if len(got) != 2 || got[0] != "clients" || got[1] != "clients-second" {
		t.Errorf("delivered = %v", got)
	}
}

func TestPublishToEmptyTopicIsNoop(t *testing.T) {
	b := NewBus()
	b.Publish(SyncStarted, "")
}

func TestTopicsAreIndependent(t *testing.T) {
	b := NewBus()

	var hits int
	b.Subscribe(SyncFinished, func(string) { hits++ })

	b.Publish(SyncStarted, "")
	if hits != 0 {
		t.Fatal("handler fired for wrong topic")
	}
	b.Publish(SyncFinished, "")
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}
