package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	m := New(0, 0)

	m.Set(Key("clients", "list", "active"), []string{"a", "b"})

	got, ok := m.Get(Key("clients", "list", "active"))
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if list := got.([]string); len(list) != 2 {
		t.Errorf("cached value = %v", list)
	}

	if _, ok := m.Get("clients:missing"); ok {
		t.Error("unexpected hit for absent key")
	}
}

func TestEntriesExpire(t *testing.T) {
	m := New(time.Minute, 0)
	base := time.Now()
	m.now = func() time.Time { return base }

	m.Set("clients:1", "v")
	if _, ok := m.Get("clients:1"); !ok {
		t.Fatal("expected hit before expiry")
	}

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := m.Get("clients:1"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestInvalidateTypeRemovesOnlyThatType(t *testing.T) {
	m := New(0, 0)
	m.Set(Key("clients", "list", "active"), 1)
	m.Set(Key("clients", "get", "7"), 2)
	m.Set(Key("projects", "list"), 3)

	m.InvalidateType("clients")

	if _, ok := m.Get(Key("clients", "list", "active")); ok {
		t.Error("client listing survived invalidation")
	}
	if _, ok := m.Get(Key("clients", "get", "7")); ok {
		t.Error("client entry survived invalidation")
	}
	if _, ok := m.Get(Key("projects", "list")); !ok {
		t.Error("project entry was invalidated")
	}
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	m := New(0, 3)
	base := time.Now()
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 3; i++ {
		m.Set(fmt.Sprintf("clients:%d", i), i)
	}
	// Touch the first entry so it is no longer the oldest.
	if _, ok := m.Get("clients:0"); !ok {
		t.Fatal("expected hit")
	}

	m.Set("clients:3", 3)

	if _, ok := m.Get("clients:1"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := m.Get("clients:0"); !ok {
		t.Error("recently used entry was evicted")
	}
}

func TestStats(t *testing.T) {
	m := New(0, 0)
	m.Set("clients:1", "v")
	m.Get("clients:1")
	m.Get("clients:2")

	s := m.Stats()
	if s.Entries != 1 || s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v", s)
	}
}
