// Package dupcheck guards entity creation against duplicates. Checks run
// against the local store only, so they work identically offline; the easy
// way to create a duplicate in a dual-store system is to re-submit while
// the remote write is still in flight, and the local row already exists
// at that point.
package dupcheck

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

// SimilarityThreshold is the Jaro-Winkler score at which two names are
// treated as the same record typed slightly differently.
const SimilarityThreshold = 0.92

// Guard performs pre-insert duplicate checks against the local store.
type Guard struct {
	store *db.Store
}

// NewGuard creates a Guard over the local store.
func NewGuard(store *db.Store) *Guard {
	return &Guard{store: store}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// similar reports whether two names are near-identical after
// normalization.
func similar(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return smetrics.JaroWinkler(na, nb, 0.7, 4) >= SimilarityThreshold
}

// CheckClient rejects a new client whose name closely matches an existing
// active client, or whose phone is already registered.
func (g *Guard) CheckClient(c *models.Client) error {
	existing, err := g.store.ListClients(models.StatusActive)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.LocalID == c.LocalID {
			continue
		}
		if similar(c.Name, other.Name) {
			return errors.Duplicate("clients", "name", other.LocalID)
		}
		if c.Phone != "" && c.Phone == other.Phone {
			return errors.Duplicate("clients", "phone", other.LocalID)
		}
	}
	return nil
}

// CheckProject rejects a new project with a near-identical name for the
// same client.
func (g *Guard) CheckProject(p *models.Project) error {
	existing, err := g.store.ListProjectsForClient(p.ClientID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.LocalID == p.LocalID {
			continue
		}
		if similar(p.Name, other.Name) {
			return errors.Duplicate("projects", "name", other.LocalID)
		}
	}
	return nil
}

// CheckService rejects a new service whose name closely matches an
// existing active service.
func (g *Guard) CheckService(sv *models.Service) error {
	existing, err := g.store.ListServices(models.StatusActive)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.LocalID == sv.LocalID {
			continue
		}
		if similar(sv.Name, other.Name) {
			return errors.Duplicate("services", "name", other.LocalID)
		}
	}
	return nil
}

// CheckPayment rejects a payment identical to one already recorded for
// the same project on the same day with the same amount.
func (g *Guard) CheckPayment(p *models.Payment) error {
	id, err := g.store.FindPaymentByKey(p.ProjectID, p.Day(), p.Amount)
	if err != nil {
		return err
	}
	if id != 0 && id != p.LocalID {
		return errors.Duplicate("payments", "project_id+date+amount", id)
	}
	return nil
}

// CheckExpense rejects an expense identical to one already recorded for
// the same project and category on the same day with the same amount.
func (g *Guard) CheckExpense(e *models.Expense) error {
	id, err := g.store.FindExpenseByKey(e.ProjectID, e.Category, e.Day(), e.Amount)
	if err != nil {
		return err
	}
	if id != 0 && id != e.LocalID {
		return errors.Duplicate("expenses", "project_id+category+date+amount", id)
	}
	return nil
}

// CheckAccount rejects a new account whose code is taken.
func (g *Guard) CheckAccount(a *models.Account) error {
	other, err := g.store.GetAccountByCode(a.Code)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	if other.LocalID != a.LocalID {
		return errors.Duplicate("accounts", "code", other.LocalID)
	}
	return nil
}

// CheckUser rejects a new user whose username is taken.
func (g *Guard) CheckUser(u *models.User) error {
	other, err := g.store.GetUserByUsername(u.Username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	if other.LocalID != u.LocalID {
		return errors.Duplicate("users", "username", other.LocalID)
	}
	return nil
}

// CheckInvoice rejects a new invoice whose number is taken.
func (g *Guard) CheckInvoice(inv *models.Invoice) error {
	other, err := g.store.GetInvoiceByNumber(inv.InvoiceNumber)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	if other.LocalID != inv.LocalID {
		return errors.Duplicate("invoices", "invoice_number", other.LocalID)
	}
	return nil
}
