package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const invoiceColumns = `id, remote_id, sync_status, created_at, last_modified,
	invoice_number, client_id, project_id, issue_date, due_date, items,
	subtotal, discount_rate, discount_amount, tax_rate, tax_amount,
	total_amount, amount_paid, status, currency, notes`

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var items string
	err := row.Scan(
		&inv.LocalID, &inv.RemoteID, &inv.SyncStatus, &inv.CreatedAt, &inv.LastModified,
		&inv.InvoiceNumber, &inv.ClientID, &inv.ProjectID, &inv.IssueDate,
		&inv.DueDate, &items, &inv.Subtotal, &inv.DiscountRate,
		&inv.DiscountAmount, &inv.TaxRate, &inv.TaxAmount, &inv.TotalAmount,
		&inv.AmountPaid, &inv.Status, &inv.Currency, &inv.Notes,
	)
	if err != nil {
		return nil, err
	}
	inv.SetItemsJSON(items)
	return &inv, nil
}

// InsertInvoice inserts an invoice and assigns its local id.
func (s *Store) InsertInvoice(inv *models.Invoice) error {
	res, err := s.exec(`
		INSERT INTO invoices (remote_id, sync_status, created_at, last_modified,
			invoice_number, client_id, project_id, issue_date, due_date, items,
			subtotal, discount_rate, discount_amount, tax_rate, tax_amount,
			total_amount, amount_paid, status, currency, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.RemoteID, inv.SyncStatus, inv.CreatedAt, inv.LastModified,
		inv.InvoiceNumber, inv.ClientID, inv.ProjectID, inv.IssueDate,
		inv.DueDate, inv.ItemsJSON(), inv.Subtotal, inv.DiscountRate,
		inv.DiscountAmount, inv.TaxRate, inv.TaxAmount, inv.TotalAmount,
		inv.AmountPaid, inv.Status, inv.Currency, inv.Notes,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "invoice insert failed", err)
	}
	inv.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "invoice insert id", err)
	}
	return nil
}

// UpdateInvoice writes an invoice's fields by local id.
func (s *Store) UpdateInvoice(inv *models.Invoice) error {
	res, err := s.exec(`
		UPDATE invoices SET
			sync_status = ?, last_modified = ?,
			invoice_number = ?, client_id = ?, project_id = ?, issue_date = ?,
			due_date = ?, items = ?, subtotal = ?, discount_rate = ?,
			discount_amount = ?, tax_rate = ?, tax_amount = ?, total_amount = ?,
			amount_paid = ?, status = ?, currency = ?, notes = ?
		WHERE id = ?`,
		inv.SyncStatus, inv.LastModified,
		inv.InvoiceNumber, inv.ClientID, inv.ProjectID, inv.IssueDate,
		inv.DueDate, inv.ItemsJSON(), inv.Subtotal, inv.DiscountRate,
		inv.DiscountAmount, inv.TaxRate, inv.TaxAmount, inv.TotalAmount,
		inv.AmountPaid, inv.Status, inv.Currency, inv.Notes,
		inv.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "invoice update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "invoice %d not found", inv.LocalID)
	}
	return nil
}

// GetInvoice retrieves an invoice by locator (local id or remote id).
func (s *Store) GetInvoice(locator string) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "invoice %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "invoice lookup failed", err)
	}
	return inv, nil
}

// GetInvoiceByNumber retrieves an invoice by its document number.
func (s *Store) GetInvoiceByNumber(number string) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(
		"SELECT "+invoiceColumns+" FROM invoices WHERE invoice_number = ?",
		number,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "invoice %q not found", number)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "invoice lookup failed", err)
	}
	return inv, nil
}

// ListInvoices returns all invoices not pending deletion, newest first.
func (s *Store) ListInvoices() ([]*models.Invoice, error) {
	return queryAll(s, scanInvoice,
		"SELECT "+invoiceColumns+" FROM invoices WHERE sync_status != ? ORDER BY issue_date DESC, id DESC",
		models.SyncStatusDeletedPending,
	)
}

// ListInvoicesForProject returns a project's invoices.
func (s *Store) ListInvoicesForProject(projectID string) ([]*models.Invoice, error) {
	return queryAll(s, scanInvoice,
		"SELECT "+invoiceColumns+" FROM invoices WHERE project_id = ? ORDER BY issue_date DESC",
		projectID,
	)
}

// ListPendingInvoices returns invoices requiring a remote operation.
func (s *Store) ListPendingInvoices() ([]*models.Invoice, error) {
	return queryAll(s, scanInvoice,
		"SELECT "+invoiceColumns+" FROM invoices WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
