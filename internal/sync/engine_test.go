package sync

import (
	"context"
	"testing"
	"time"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
	"github.com/skywaveads/erp-core/internal/sync/queue"
)

type harness struct {
	store *db.Store
	mem   *remote.MemoryStore
	sup   *remote.Supervisor
	retry *queue.RetryQueue
	rec   *Reconciler
}

func newHarness(t *testing.T) *harness {
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
	sup := remote.NewSupervisor(func(ctx context.Context) (remote.Store, error) {
		if err := mem.Ping(ctx); err != nil {
			return nil, err
		}
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

	retry := queue.New(store, sup)
	return &harness{
		store: store,
		mem:   mem,
		sup:   sup,
		retry: retry,
		rec:   NewReconciler(store, sup, retry, nil),
	}
}

func (h *harness) insertOfflineClient(t *testing.T, name string) *models.Client {
	t.Helper()
	c := &models.Client{Name: name, Status: models.StatusActive}
	c.MarkCreated()
	if err := h.store.InsertClient(c); err != nil {
		t.Fatalf("InsertClient failed: %v", err)
	}
	return c
}

func TestReconcilePushesOfflineCreations(t *testing.T) {
	h := newHarness(t)
	c := h.insertOfflineClient(t, "Acme Corp")

	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Pushed != 1 {
		t.Errorf("pushed = %d, want 1", res.Pushed)
	}

	got, err := h.store.GetClient("1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if got.SyncStatus != models.SyncStatusSynced {
		t.Errorf("sync status = %q, want synced", got.SyncStatus)
	}
	if got.RemoteID == "" {
		t.Fatal("remote id not stitched")
	}
	if got.LocalID != c.LocalID {
		t.Errorf("local id changed: %d -> %d", c.LocalID, got.LocalID)
	}

	doc, ok := h.mem.Get("clients", got.RemoteID)
	if !ok {
		t.Fatal("record missing from remote store")
	}
	if doc["name"] != "Acme Corp" {
		t.Errorf("remote doc = %v", doc)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")

	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if res.Pushed != 0 || res.Pulled != 0 || res.Merged != 0 || res.Deleted != 0 {
		t.Errorf("second pass changed state: %+v", res)
	}
	if h.mem.Count("clients") != 1 {
		t.Errorf("remote has %d docs, want 1", h.mem.Count("clients"))
	}
	if n, _ := h.store.CountRows("clients"); n != 1 {
		t.Errorf("local has %d rows, want 1", n)
	}
}

func TestReconcilePullsRemoteCreations(t *testing.T) {
	h := newHarness(t)

	now := time.Now().Unix()
	remoteID, err := h.mem.Insert(context.Background(), "clients", models.Document{
		"name": "Remote Client", "status": models.StatusActive,
		"created_at": now, "last_modified": now,
	})
	if err != nil {
		t.Fatalf("remote Insert failed: %v", err)
	}

	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Pulled != 1 {
		t.Errorf("pulled = %d, want 1", res.Pulled)
	}

	got, err := h.store.GetClient(remoteID)
	if err != nil {
		t.Fatalf("pulled record not in local store: %v", err)
	}
	if got.SyncStatus != models.SyncStatusSynced {
		t.Errorf("sync status = %q, want synced", got.SyncStatus)
	}
	if got.Name != "Remote Client" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestReconcileMergesNewerRemoteChanges(t *testing.T) {
	h := newHarness(t)
	c := h.insertOfflineClient(t, "Acme Corp")
	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	synced, _ := h.store.GetClient("1")

	// Another installation renames the client later.
	doc := synced.ToDocument()
	doc["name"] = "Acme Global"
	doc["last_modified"] = synced.LastModified + 100
	if err := h.mem.Update(context.Background(), "clients", synced.RemoteID, doc); err != nil {
		t.Fatalf("remote Update failed: %v", err)
	}

	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Merged != 1 {
		t.Errorf("merged = %d, want 1", res.Merged)
	}

	got, _ := h.store.GetClient("1")
	if got.Name != "Acme Global" {
		t.Errorf("name = %q, want merged remote value", got.Name)
	}
	if got.LocalID != c.LocalID {
		t.Errorf("merge changed local id to %d", got.LocalID)
	}
}

func TestReconcileAppliesNewerRemoteOverPendingEdit(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")
	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	synced, _ := h.store.GetClient("1")

	// Local edit while offline.
	synced.Name = "Local Edit"
	synced.MarkLocalUpdate()
	if err := h.store.UpdateClient(synced); err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}

	// Remote edit with an even newer timestamp.
	doc := synced.ToDocument()
	doc["name"] = "Remote Edit"
	doc["last_modified"] = synced.LastModified + 100
	if err := h.mem.Update(context.Background(), "clients", synced.RemoteID, doc); err != nil {
		t.Fatalf("remote Update failed: %v", err)
	}

	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Newest write wins: the remote value overwrites the stale local
	// edit, and the stale edit never reaches the remote store.
	got, _ := h.store.GetClient("1")
	if got.Name != "Remote Edit" {
		t.Errorf("local name = %q, want newer remote value applied", got.Name)
	}
	if got.SyncStatus != models.SyncStatusSynced {
		t.Errorf("status = %q, want synced after merge", got.SyncStatus)
	}
	remoteDoc, _ := h.mem.Get("clients", synced.RemoteID)
	if remoteDoc["name"] != "Remote Edit" {
		t.Errorf("remote name = %v, older local edit overwrote newer remote value", remoteDoc["name"])
	}
}

func TestReconcileKeepsNewerLocalEditOverStaleRemote(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")
	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	synced, _ := h.store.GetClient("1")

	// Remote edit first, then a newer local edit while offline.
	doc := synced.ToDocument()
	doc["name"] = "Remote Edit"
	doc["last_modified"] = synced.LastModified + 10
	if err := h.mem.Update(context.Background(), "clients", synced.RemoteID, doc); err != nil {
		t.Fatalf("remote Update failed: %v", err)
	}
	synced.Name = "Local Edit"
	synced.SyncStatus = models.SyncStatusModifiedOffline
	synced.LastModified = synced.LastModified + 100
	if err := h.store.UpdateClient(synced); err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}

	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := h.store.GetClient("1")
	if got.Name != "Local Edit" {
		t.Errorf("local name = %q, want newer local edit kept", got.Name)
	}
	remoteDoc, _ := h.mem.Get("clients", synced.RemoteID)
	if remoteDoc["name"] != "Local Edit" {
		t.Errorf("remote name = %v, want newer local edit pushed", remoteDoc["name"])
	}
}

func TestReconcilePushesPendingDeletions(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")
	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	synced, _ := h.store.GetClient("1")

	if err := h.store.MarkDeletedPending("clients", synced.LocalID); err != nil {
		t.Fatalf("MarkDeletedPending failed: %v", err)
	}

	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", res.Deleted)
	}
	if h.mem.Count("clients") != 0 {
		t.Error("remote copy not removed")
	}
	if n, _ := h.store.CountRows("clients"); n != 0 {
		t.Error("local row not removed")
	}
}

func TestReconcileSkipsTombstonedRemoteDocs(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")
	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	synced, _ := h.store.GetClient("1")

	// The record was deleted locally while offline; the remote cleanup
	// is queued but blocked (backoff window still open).
	if err := h.store.RemoveRow("clients", synced.LocalID); err != nil {
		t.Fatalf("RemoveRow failed: %v", err)
	}
	entry := &models.SyncQueueEntry{
		EntityType:  "clients",
		EntityID:    synced.LocalID,
		RemoteID:    synced.RemoteID,
		Operation:   models.QueueOpDelete,
		NextRetryAt: time.Now().Unix() + 3600,
	}
	if err := h.store.EnqueueOp(entry); err != nil {
		t.Fatalf("EnqueueOp failed: %v", err)
	}

	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The remote doc still exists but must not be pulled back.
	if n, _ := h.store.CountRows("clients"); n != 0 {
		t.Error("locally deleted record was resurrected by pull")
	}
}

func TestReconcileOfflineIsNoop(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")
	h.mem.SetOffline(true)
	h.sup.MarkOffline()

	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Pushed != 0 {
		t.Errorf("pushed while offline: %+v", res)
	}

	got, _ := h.store.GetClient("1")
	if got.SyncStatus != models.SyncStatusNewOffline {
		t.Errorf("offline record changed state to %q", got.SyncStatus)
	}
}

func TestRunReconnectsWhenTriggeredOffline(t *testing.T) {
	h := newHarness(t)
	h.insertOfflineClient(t, "Acme Corp")
	h.sup.MarkOffline()

	// Connectivity is back; a single user-triggered pass must probe,
	// reconnect and sync in one call.
	res, err := h.rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Pushed != 1 {
		t.Errorf("pushed = %d, want 1 after reconnect", res.Pushed)
	}
	if !h.sup.IsOnline() {
		t.Error("supervisor still offline after successful probe")
	}
	if h.mem.Count("clients") != 1 {
		t.Errorf("remote has %d docs, want 1", h.mem.Count("clients"))
	}
}

func TestReconcilePreservesLocalInvoiceNumberOnMerge(t *testing.T) {
	h := newHarness(t)

	inv := &models.Invoice{
		InvoiceNumber: "INV-000001",
		ClientID:      "1",
		IssueDate:     "2026-02-01",
		TotalAmount:   500,
		Status:        models.InvoiceStatusSent,
	}
	inv.MarkCreated()
	if err := h.store.InsertInvoice(inv); err != nil {
		t.Fatalf("InsertInvoice failed: %v", err)
	}
	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	synced, _ := h.store.GetInvoice("1")

	// The remote copy claims a different number; the local sequence
	// assignment must survive the merge.
	doc := synced.ToDocument()
	doc["invoice_number"] = "INV-999999"
	doc["status"] = models.InvoiceStatusPaid
	doc["last_modified"] = synced.LastModified + 50
	if err := h.mem.Update(context.Background(), "invoices", synced.RemoteID, doc); err != nil {
		t.Fatalf("remote Update failed: %v", err)
	}

	if _, err := h.rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := h.store.GetInvoice("1")
	if got.InvoiceNumber != "INV-000001" {
		t.Errorf("invoice number = %q, want local value kept", got.InvoiceNumber)
	}
	if got.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %q, want merged remote value", got.Status)
	}
}
