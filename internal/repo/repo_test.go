package repo

import (
	"context"
	"testing"
	"time"

	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/events"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
	syncpkg "github.com/skywaveads/erp-core/internal/sync"
	"github.com/skywaveads/erp-core/internal/sync/queue"
)

// newLocalRepo builds a repository with no background writer: every
// operation completes purely against the local store, which is exactly
// the offline mode of operation.
func newLocalRepo(t *testing.T) *Repository {
	t.Helper()
	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return New(db.NewStore(database), cache.New(0, 0), nil, events.NewBus())
}

func newMirroredRepo(t *testing.T) (*Repository, *remote.MemoryStore) {
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

	writer := syncpkg.NewWriter(store, sup, queue.New(store, sup), 2)
	t.Cleanup(writer.Close)
	return New(store, cache.New(0, 0), writer, events.NewBus()), mem
}

func TestCreateClientWorksOffline(t *testing.T) {
	r := newLocalRepo(t)

	c := &models.Client{Name: "Acme Corp"}
	if err := r.CreateClient(c); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	if c.LocalID == 0 {
		t.Fatal("no local id assigned")
	}
	if c.SyncStatus != models.SyncStatusNewOffline {
		t.Errorf("status = %q, want new_offline", c.SyncStatus)
	}

	// Immediately readable.
	list, err := r.GetClients()
	if err != nil {
		t.Fatalf("GetClients failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Acme Corp" {
		t.Errorf("listing = %v", list)
	}
}

func TestCreateValidationRejectsBadInput(t *testing.T) {
	r := newLocalRepo(t)

	if err := r.CreateClient(&models.Client{}); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("empty client error = %v", err)
	}
	if err := r.CreatePayment(&models.Payment{ProjectID: "1", Amount: -5, Date: "2026-01-01"}); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("negative payment error = %v", err)
	}

	if n, _ := r.store.CountRows("clients"); n != 0 {
		t.Errorf("rejected create left %d rows", n)
	}
}

func TestDuplicateCreateLeavesRowCountUnchanged(t *testing.T) {
	r := newLocalRepo(t)

	if err := r.CreateClient(&models.Client{Name: "Acme Corp", Phone: "+20100"}); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	before, _ := r.store.CountRows("clients")

	// Name matching ignores case; a different phone does not save it.
	err := r.CreateClient(&models.Client{Name: "ACME CORP", Phone: "+20999"})
	if !errors.Is(err, errors.ErrDuplicate) {
		t.Fatalf("duplicate error = %v", err)
	}

	after, _ := r.store.CountRows("clients")
	if after != before {
		t.Errorf("row count changed %d -> %d on rejected duplicate", before, after)
	}
}

func TestDuplicatePaymentRejected(t *testing.T) {
	r := newLocalRepo(t)

	p := &models.Payment{ProjectID: "P1", Date: "2024-01-05", Amount: 500}
	if err := r.CreatePayment(p); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	err := r.CreatePayment(&models.Payment{ProjectID: "P1", Date: "2024-01-05", Amount: 500})
	if !errors.Is(err, errors.ErrDuplicate) {
		t.Fatalf("duplicate error = %v", err)
	}
	if n, _ := r.store.CountRows("payments"); n != 1 {
		t.Errorf("payment rows = %d, want 1", n)
	}
}

func TestDuplicateServiceRejected(t *testing.T) {
	r := newLocalRepo(t)

	if err := r.CreateService(&models.Service{Name: "Logo Design"}); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	err := r.CreateService(&models.Service{Name: "logo design"})
	if !errors.Is(err, errors.ErrDuplicate) {
		t.Fatalf("duplicate error = %v", err)
	}
	if n, _ := r.store.CountRows("services"); n != 1 {
		t.Errorf("services rows = %d, want 1", n)
	}
}

func TestDuplicateUsernameRejectedIgnoringCase(t *testing.T) {
	r := newLocalRepo(t)

	if err := r.CreateUser(&models.User{Username: "Admin", PasswordHash: "x", Role: "admin"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	err := r.CreateUser(&models.User{Username: "admin", PasswordHash: "y", Role: "viewer"})
	if !errors.Is(err, errors.ErrDuplicate) {
		t.Fatalf("duplicate error = %v", err)
	}
	if n, _ := r.store.CountRows("users"); n != 1 {
		t.Errorf("users rows = %d, want 1", n)
	}
}

func TestUpdateDoesNotConflictWithSelf(t *testing.T) {
	r := newLocalRepo(t)

	c := &models.Client{Name: "Acme Corp", Phone: "+20100"}
	if err := r.CreateClient(c); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	c.Notes = "updated"
	if err := r.UpdateClient(c); err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}
	if c.SyncStatus != models.SyncStatusNewOffline {
		t.Errorf("never-synced record became %q", c.SyncStatus)
	}
}

func TestListingsAreCachedAndInvalidatedOnWrite(t *testing.T) {
	r := newLocalRepo(t)

	if err := r.CreateClient(&models.Client{Name: "First"}); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	if _, err := r.GetClients(); err != nil {
		t.Fatalf("GetClients failed: %v", err)
	}
	if _, err := r.GetClients(); err != nil {
		t.Fatalf("GetClients failed: %v", err)
	}
	if stats := r.CacheStats(); stats.Hits == 0 {
		t.Error("second listing did not hit the cache")
	}

	if err := r.CreateClient(&models.Client{Name: "Second"}); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	list, err := r.GetClients()
	if err != nil {
		t.Fatalf("GetClients failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("stale listing after write: %d rows", len(list))
	}
}

func TestArchiveHidesFromActiveListing(t *testing.T) {
	r := newLocalRepo(t)

	c := &models.Client{Name: "Acme Corp"}
	if err := r.CreateClient(c); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	if err := r.ArchiveClient("1"); err != nil {
		t.Fatalf("ArchiveClient failed: %v", err)
	}

	active, _ := r.GetClients()
	if len(active) != 0 {
		t.Errorf("archived client still active: %v", active)
	}
	archived, _ := r.GetArchivedClients()
	if len(archived) != 1 {
		t.Errorf("archived listing = %v", archived)
	}
}

func TestDeleteRemovesRowImmediately(t *testing.T) {
	r := newLocalRepo(t)

	c := &models.Client{Name: "Acme Corp"}
	if err := r.CreateClient(c); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	if err := r.DeleteClient("1"); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}

	if _, err := r.GetClient("1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("lookup after delete = %v", err)
	}
	if n, _ := r.store.CountRows("clients"); n != 0 {
		t.Errorf("row survived delete")
	}
}

func TestEntityChangedPublishedOnWrite(t *testing.T) {
	r := newLocalRepo(t)

	var changed []string
	r.bus.Subscribe(events.EntityChanged, func(payload string) {
		changed = append(changed, payload)
	})

	if err := r.CreateClient(&models.Client{Name: "Acme Corp"}); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	if len(changed) != 1 || changed[0] != "clients" {
		t.Errorf("published = %v", changed)
	}
}

func TestLocalIDStableAcrossMirror(t *testing.T) {
	r, mem := newMirroredRepo(t)

	c := &models.Client{Name: "Acme Corp"}
	if err := r.CreateClient(c); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	id := c.LocalID

	deadline := time.Now().Add(2 * time.Second)
	for mem.Count("clients") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("record never mirrored")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, err := r.GetClient("1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if got.LocalID != id {
		t.Errorf("local id changed across sync: %d -> %d", id, got.LocalID)
	}
	if got.SyncStatus != models.SyncStatusSynced {
		t.Errorf("status = %q, want synced", got.SyncStatus)
	}

	// The stitched remote id resolves to the same record.
	byRemote, err := r.GetClient(got.RemoteID)
	if err != nil {
		t.Fatalf("lookup by remote id failed: %v", err)
	}
	if byRemote.LocalID != id {
		t.Errorf("remote id resolves to %d, want %d", byRemote.LocalID, id)
	}
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	r := newLocalRepo(t)

	first, err := r.NextInvoiceNumber()
	if err != nil {
		t.Fatalf("NextInvoiceNumber failed: %v", err)
	}
	second, err := r.NextInvoiceNumber()
	if err != nil {
		t.Fatalf("NextInvoiceNumber failed: %v", err)
	}
	if first != "INV-000001" || second != "INV-000002" {
		t.Errorf("numbers = %q, %q", first, second)
	}
}

func TestCreateInvoiceAssignsNumber(t *testing.T) {
	r := newLocalRepo(t)

	inv := &models.Invoice{ClientID: "1", IssueDate: "2026-02-01", TotalAmount: 100}
	if err := r.CreateInvoice(inv); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if inv.InvoiceNumber != "INV-000001" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if inv.Status != models.InvoiceStatusDraft {
		t.Errorf("status = %q, want draft", inv.Status)
	}
}

func TestApplyPaymentToInvoice(t *testing.T) {
	r := newLocalRepo(t)

	inv := &models.Invoice{ClientID: "1", ProjectID: "2", IssueDate: "2026-02-01", TotalAmount: 1000, Status: models.InvoiceStatusSent}
	if err := r.CreateInvoice(inv); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if err := r.ApplyPaymentToInvoice("1", &models.Payment{Date: "2026-02-10", Amount: 400}); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	got, _ := r.GetInvoice("1")
	if got.AmountPaid != 400 || got.Status != models.InvoiceStatusPartial {
		t.Errorf("after partial payment: paid=%v status=%q", got.AmountPaid, got.Status)
	}

	if err := r.ApplyPaymentToInvoice("1", &models.Payment{Date: "2026-02-20", Amount: 600}); err != nil {
		t.Fatalf("second payment failed: %v", err)
	}
	got, _ = r.GetInvoice("1")
	if got.AmountPaid != 1000 || got.Status != models.InvoiceStatusPaid {
		t.Errorf("after full payment: paid=%v status=%q", got.AmountPaid, got.Status)
	}

	// The payments inherit the invoice's project and feed the rollup.
	revenue, _ := r.GetProjectRevenue("2")
	if revenue != 1000 {
		t.Errorf("project revenue = %v, want 1000", revenue)
	}
}

func TestPaymentAdjustsAccountBalance(t *testing.T) {
	r := newLocalRepo(t)

	acc := &models.Account{Name: "Cash", Code: "1010", Type: "asset"}
	if err := r.CreateAccount(acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	p := &models.Payment{ProjectID: "1", Date: "2026-03-01", Amount: 500, AccountID: "1"}
	if err := r.CreatePayment(p); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	got, _ := r.GetAccount("1")
	if got.Balance != 500 {
		t.Errorf("balance = %v, want 500", got.Balance)
	}

	if err := r.DeletePayment("1"); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	got, _ = r.GetAccount("1")
	if got.Balance != 0 {
		t.Errorf("balance after reversal = %v, want 0", got.Balance)
	}
}

func TestArchivedAccountReleasesItsCode(t *testing.T) {
	r := newLocalRepo(t)

	if err := r.CreateAccount(&models.Account{Name: "Cash", Code: "1010", Type: "asset"}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	// While active the code is taken.
	err := r.CreateAccount(&models.Account{Name: "Petty Cash", Code: "1010", Type: "asset"})
	if !errors.Is(err, errors.ErrDuplicate) {
		t.Fatalf("duplicate error = %v", err)
	}

	if err := r.ArchiveAccount("1"); err != nil {
		t.Fatalf("ArchiveAccount failed: %v", err)
	}

	// An archived account no longer blocks its code.
	if err := r.CreateAccount(&models.Account{Name: "Petty Cash", Code: "1010", Type: "asset"}); err != nil {
		t.Fatalf("code still blocked after archive: %v", err)
	}
	if _, err := r.GetAccountByCode("1010"); err != nil {
		t.Fatalf("GetAccountByCode failed: %v", err)
	}
	active, _ := r.GetAccounts()
	if len(active) != 1 || active[0].Name != "Petty Cash" {
		t.Errorf("active accounts = %v", active)
	}
}

func TestExpenseDebitsPayingAccount(t *testing.T) {
	r := newLocalRepo(t)

	acc := &models.Account{Name: "Bank", Code: "1020", Type: "asset"}
	if err := r.CreateAccount(acc); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	e := &models.Expense{Date: "2026-03-05", Category: "hosting", Amount: 120, AccountID: "5000", PaymentAccountID: "1"}
	if err := r.CreateExpense(e); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	got, _ := r.GetAccount("1")
	if got.Balance != -120 {
		t.Errorf("balance = %v, want -120", got.Balance)
	}
}
