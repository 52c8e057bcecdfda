package repo

import (
	"fmt"
	"time"

	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

// NextInvoiceNumber draws the next number from the local sequence.
// Numbers are assigned locally and never renumbered by the remote store,
// so they stay stable across sync.
func (r *Repository) NextInvoiceNumber() (string, error) {
	seq, err := r.store.NextSequence("invoice_number")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", seq), nil
}

// CreateInvoice validates and stores a new invoice, assigning a number
// from the local sequence when the caller left it empty.
func (r *Repository) CreateInvoice(inv *models.Invoice) error {
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	if inv.InvoiceNumber == "" {
		number, err := r.NextInvoiceNumber()
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
	}
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckInvoice(inv); err != nil {
		return err
	}

	inv.MarkCreated()
	if err := r.store.InsertInvoice(inv); err != nil {
		return err
	}
	r.invalidate("invoices")
	r.mirrorCreate("invoices", inv.LocalID)
	return nil
}

// UpdateInvoice validates and stores changed invoice fields.
func (r *Repository) UpdateInvoice(inv *models.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckInvoice(inv); err != nil {
		return err
	}

	inv.MarkLocalUpdate()
	if err := r.store.UpdateInvoice(inv); err != nil {
		return err
	}
	r.invalidate("invoices")
	r.mirrorUpdate("invoices", inv.LocalID)
	return nil
}

// DeleteInvoice removes an invoice permanently.
func (r *Repository) DeleteInvoice(locator string) error {
	return r.deleteRecord("invoices", locator)
}

// GetInvoice retrieves an invoice by local or remote id.
func (r *Repository) GetInvoice(locator string) (*models.Invoice, error) {
	return r.store.GetInvoice(locator)
}

// GetInvoiceByNumber retrieves an invoice by its document number.
func (r *Repository) GetInvoiceByNumber(number string) (*models.Invoice, error) {
	return r.store.GetInvoiceByNumber(number)
}

// GetInvoices returns all invoices, cached.
func (r *Repository) GetInvoices() ([]*models.Invoice, error) {
	return listCached(r, cache.Key("invoices", "list"), r.store.ListInvoices)
}

// GetInvoicesForProject returns a project's invoices.
func (r *Repository) GetInvoicesForProject(projectID string) ([]*models.Invoice, error) {
	return r.store.ListInvoicesForProject(projectID)
}

// CreatePayment validates, checks for duplicates and stores a new
// payment, adjusting the receiving account's balance.
func (r *Repository) CreatePayment(p *models.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckPayment(p); err != nil {
		return err
	}

	p.MarkCreated()
	if err := r.store.InsertPayment(p); err != nil {
		return err
	}
	if err := r.creditAccount(p.AccountID, p.Amount); err != nil {
		return err
	}
	r.invalidate("payments")
	r.mirrorCreate("payments", p.LocalID)
	return nil
}

// DeletePayment removes a payment and reverses its account credit.
func (r *Repository) DeletePayment(locator string) error {
	p, err := r.store.GetPayment(locator)
	if err != nil {
		return err
	}
	if err := r.deleteRecord("payments", locator); err != nil {
		return err
	}
	return r.creditAccount(p.AccountID, -p.Amount)
}

// GetPayment retrieves a payment by local or remote id.
func (r *Repository) GetPayment(locator string) (*models.Payment, error) {
	return r.store.GetPayment(locator)
}

// GetPayments returns all payments, cached.
func (r *Repository) GetPayments() ([]*models.Payment, error) {
	return listCached(r, cache.Key("payments", "list"), r.store.ListPayments)
}

// GetPaymentsForProject returns a project's payments.
func (r *Repository) GetPaymentsForProject(projectID string) ([]*models.Payment, error) {
	return r.store.GetPaymentsForProject(projectID)
}

// ApplyPaymentToInvoice records a received payment against an invoice:
// the payment is created, the invoice's paid amount grows and its status
// follows (partially_paid, then paid once covered).
func (r *Repository) ApplyPaymentToInvoice(invoiceLocator string, p *models.Payment) error {
	inv, err := r.store.GetInvoice(invoiceLocator)
	if err != nil {
		return err
	}
	if inv.Status == models.InvoiceStatusVoid {
		return errors.New(errors.ErrValidation, "cannot pay a void invoice")
	}
	if p.ProjectID == "" {
		p.ProjectID = inv.ProjectID
	}
	if p.ClientID == "" {
		p.ClientID = inv.ClientID
	}

	if err := r.CreatePayment(p); err != nil {
		return err
	}

	inv.AmountPaid += p.Amount
	switch {
	case inv.AmountPaid >= inv.TotalAmount:
		inv.Status = models.InvoiceStatusPaid
	case inv.AmountPaid > 0:
		inv.Status = models.InvoiceStatusPartial
	}
	inv.MarkLocalUpdate()
	if err := r.store.UpdateInvoice(inv); err != nil {
		return err
	}
	r.invalidate("invoices")
	r.mirrorUpdate("invoices", inv.LocalID)
	return nil
}

// CreateAccount validates, checks the code and stores a new account.
func (r *Repository) CreateAccount(a *models.Account) error {
	if a.Status == "" {
		a.Status = models.StatusActive
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckAccount(a); err != nil {
		return err
	}

	a.MarkCreated()
	if err := r.store.InsertAccount(a); err != nil {
		return err
	}
	r.invalidate("accounts")
	r.mirrorCreate("accounts", a.LocalID)
	return nil
}

// UpdateAccount validates and stores changed account fields.
func (r *Repository) UpdateAccount(a *models.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckAccount(a); err != nil {
		return err
	}

	a.MarkLocalUpdate()
	if err := r.store.UpdateAccount(a); err != nil {
		return err
	}
	r.invalidate("accounts")
	r.mirrorUpdate("accounts", a.LocalID)
	return nil
}

// ArchiveAccount hides an account from active listings and releases its
// code for reuse.
func (r *Repository) ArchiveAccount(locator string) error {
	a, err := r.store.GetAccount(locator)
	if err != nil {
		return err
	}
	a.Status = models.StatusArchived
	a.MarkLocalUpdate()
	if err := r.store.UpdateAccount(a); err != nil {
		return err
	}
	r.invalidate("accounts")
	r.mirrorUpdate("accounts", a.LocalID)
	return nil
}

// DeleteAccount removes an account permanently.
func (r *Repository) DeleteAccount(locator string) error {
	return r.deleteRecord("accounts", locator)
}

// GetAccount retrieves an account by local or remote id.
func (r *Repository) GetAccount(locator string) (*models.Account, error) {
	return r.store.GetAccount(locator)
}

// GetAccountByCode retrieves an account by its code.
func (r *Repository) GetAccountByCode(code string) (*models.Account, error) {
	return r.store.GetAccountByCode(code)
}

// GetAccounts returns active accounts, cached.
func (r *Repository) GetAccounts() ([]*models.Account, error) {
	return listCached(r, cache.Key("accounts", "list", models.StatusActive), func() ([]*models.Account, error) {
		return r.store.ListAccounts(models.StatusActive)
	})
}

// creditAccount applies a balance delta and mirrors the change. A blank
// account id is a payment outside the chart of accounts.
func (r *Repository) creditAccount(accountID string, delta float64) error {
	if accountID == "" {
		return nil
	}
	localID, err := r.store.ResolveLocalID("accounts", accountID)
	if err != nil {
		return err
	}
	if err := r.store.AdjustAccountBalance(localID, delta, time.Now().Unix()); err != nil {
		return err
	}
	r.invalidate("accounts")
	r.mirrorUpdate("accounts", localID)
	return nil
}

// CreateExpense validates, checks for duplicates and stores a new
// expense, debiting the paying account.
func (r *Repository) CreateExpense(e *models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckExpense(e); err != nil {
		return err
	}

	e.MarkCreated()
	if err := r.store.InsertExpense(e); err != nil {
		return err
	}
	if err := r.creditAccount(e.PaymentAccountID, -e.Amount); err != nil {
		return err
	}
	r.invalidate("expenses")
	r.mirrorCreate("expenses", e.LocalID)
	return nil
}

// UpdateExpense validates and stores changed expense fields. Balance
// differences are the caller's concern; only the expense row changes.
func (r *Repository) UpdateExpense(e *models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	e.MarkLocalUpdate()
	if err := r.store.UpdateExpense(e); err != nil {
		return err
	}
	r.invalidate("expenses")
	r.mirrorUpdate("expenses", e.LocalID)
	return nil
}

// DeleteExpense removes an expense and reverses its account debit.
func (r *Repository) DeleteExpense(locator string) error {
	e, err := r.store.GetExpense(locator)
	if err != nil {
		return err
	}
	if err := r.deleteRecord("expenses", locator); err != nil {
		return err
	}
	return r.creditAccount(e.PaymentAccountID, e.Amount)
}

// GetExpense retrieves an expense by local or remote id.
func (r *Repository) GetExpense(locator string) (*models.Expense, error) {
	return r.store.GetExpense(locator)
}

// GetExpenses returns all expenses, cached.
func (r *Repository) GetExpenses() ([]*models.Expense, error) {
	return listCached(r, cache.Key("expenses", "list"), r.store.ListExpenses)
}

// GetExpensesForProject returns a project's expenses.
func (r *Repository) GetExpensesForProject(projectID string) ([]*models.Expense, error) {
	return r.store.ListExpensesForProject(projectID)
}
