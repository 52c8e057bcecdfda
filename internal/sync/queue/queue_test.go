package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
)

func newTestQueue(t *testing.T) (*RetryQueue, *db.Store, *remote.MemoryStore) {
	t.Helper()

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	store := db.NewStore(database)

	mem := remote.NewMemoryStore()
	sup := remote.NewSupervisor(func(context.Context) (remote.Store, error) {
		return mem, nil
	}, nil)
	sup.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for !sup.IsOnline() {
		if time.Now().After(deadline) {
			t.Fatal("supervisor did not come online")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return New(store, sup), store, mem
}

func insertOfflineClient(t *testing.T, store *db.Store) *models.Client {
	t.Helper()
	c := &models.Client{Name: "Acme Corp", Status: models.StatusActive}
	c.MarkCreated()
	if err := store.InsertClient(c); err != nil {
		t.Fatalf("InsertClient failed: %v", err)
	}
	return c
}

func TestDrainReplaysInsertAndStitches(t *testing.T) {
	q, store, mem := newTestQueue(t)
	c := insertOfflineClient(t, store)

	entry := &models.SyncQueueEntry{
		EntityType: "clients",
		EntityID:   c.LocalID,
		Operation:  models.QueueOpInsert,
		Payload:    mustJSON(t, c.ToDocument()),
	}
	if err := q.Enqueue(entry); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	drained, err := q.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if drained != 1 {
		t.Fatalf("drained = %d, want 1", drained)
	}

	got, _ := store.GetClient("1")
	if got.SyncStatus != models.SyncStatusSynced || got.RemoteID == "" {
		t.Errorf("record not stitched: status=%s remote_id=%q", got.SyncStatus, got.RemoteID)
	}
	if mem.Count("clients") != 1 {
		t.Errorf("remote count = %d, want 1", mem.Count("clients"))
	}
}

func TestDrainDropsEntryForDeletedRecord(t *testing.T) {
	q, store, mem := newTestQueue(t)
	c := insertOfflineClient(t, store)

	entry := &models.SyncQueueEntry{
		EntityType: "clients",
		EntityID:   c.LocalID,
		Operation:  models.QueueOpInsert,
		Payload:    mustJSON(t, c.ToDocument()),
	}
	if err := q.Enqueue(entry); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := store.RemoveRow("clients", c.LocalID); err != nil {
		t.Fatalf("RemoveRow failed: %v", err)
	}

	drained, err := q.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if drained != 1 {
		t.Errorf("drained = %d, want 1", drained)
	}
	if mem.Count("clients") != 0 {
		t.Error("deleted record reached the remote store")
	}
}

func TestDrainDropsEntryWithUnreadablePayload(t *testing.T) {
	q, store, mem := newTestQueue(t)
	c := insertOfflineClient(t, store)

	models.SetOriginDevice("laptop-01")
	t.Cleanup(func() { models.SetOriginDevice("") })

	entry := &models.SyncQueueEntry{
		EntityType: "clients",
		EntityID:   c.LocalID,
		Operation:  models.QueueOpInsert,
		Payload:    []byte("{not json"),
	}
	if err := store.EnqueueOp(entry); err != nil {
		t.Fatalf("EnqueueOp failed: %v", err)
	}

	drained, err := q.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if drained != 1 {
		t.Errorf("drained = %d, want 1", drained)
	}
	if mem.Count("clients") != 0 {
		t.Error("unreadable payload reached the remote store")
	}
	entries, _ := store.QueueEntriesForRecord("clients", c.LocalID)
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

func TestDrainStopsWhenRemoteGoesOffline(t *testing.T) {
	q, store, mem := newTestQueue(t)
	c := insertOfflineClient(t, store)

	for i := 0; i < 2; i++ {
		entry := &models.SyncQueueEntry{
			EntityType: "clients",
			EntityID:   c.LocalID + int64(i),
			Operation:  models.QueueOpDelete,
			RemoteID:   "64a1b2c3d4e5f6a7b8c9d0e1",
		}
		// Distinct entity ids so the entries do not collapse.
		if err := store.EnqueueOp(entry); err != nil {
			t.Fatalf("EnqueueOp failed: %v", err)
		}
	}
	mem.SetOffline(true)

	drained, err := q.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if drained != 0 {
		t.Errorf("drained = %d, want 0", drained)
	}

	stats, _ := q.Stats()
	if stats[models.QueueStatusPending] != 2 {
		t.Errorf("stats = %v, want 2 pending", stats)
	}
}

func TestDrainBacksOffFailedEntry(t *testing.T) {
	q, store, mem := newTestQueue(t)

	entry := &models.SyncQueueEntry{
		EntityType: "clients",
		EntityID:   9,
		Operation:  models.QueueOpDelete,
		RemoteID:   "64a1b2c3d4e5f6a7b8c9d0e1",
	}
	if err := store.EnqueueOp(entry); err != nil {
		t.Fatalf("EnqueueOp failed: %v", err)
	}
	mem.SetOffline(true)

	if _, err := q.Drain(context.Background()); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	entries, _ := store.QueueEntriesForRecord("clients", 9)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", got.RetryCount)
	}
	if got.NextRetryAt <= time.Now().Unix() {
		t.Error("no backoff window set")
	}
	if got.ErrorMessage == "" {
		t.Error("failure reason not recorded")
	}
}

func mustJSON(t *testing.T, doc models.Document) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return data
}
