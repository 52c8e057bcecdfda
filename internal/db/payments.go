package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const paymentColumns = `id, remote_id, sync_status, created_at, last_modified,
	project_id, client_id, date, amount, account_id, method`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.LocalID, &p.RemoteID, &p.SyncStatus, &p.CreatedAt, &p.LastModified,
		&p.ProjectID, &p.ClientID, &p.Date, &p.Amount, &p.AccountID, &p.Method,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPayment inserts a payment and assigns its local id.
func (s *Store) InsertPayment(p *models.Payment) error {
	res, err := s.exec(`
		INSERT INTO payments (remote_id, sync_status, created_at, last_modified,
			project_id, client_id, date, amount, account_id, method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RemoteID, p.SyncStatus, p.CreatedAt, p.LastModified,
		p.ProjectID, p.ClientID, p.Date, p.Amount, p.AccountID, p.Method,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "payment insert failed", err)
	}
	p.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "payment insert id", err)
	}
	return nil
}

// UpdatePayment writes a payment's fields by local id.
func (s *Store) UpdatePayment(p *models.Payment) error {
	res, err := s.exec(`
		UPDATE payments SET
			sync_status = ?, last_modified = ?,
			project_id = ?, client_id = ?, date = ?, amount = ?,
			account_id = ?, method = ?
		WHERE id = ?`,
		p.SyncStatus, p.LastModified,
		p.ProjectID, p.ClientID, p.Date, p.Amount, p.AccountID, p.Method,
		p.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "payment update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "payment %d not found", p.LocalID)
	}
	return nil
}

// GetPayment retrieves a payment by locator (local id or remote id).
func (s *Store) GetPayment(locator string) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRow(
		"SELECT "+paymentColumns+" FROM payments WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "payment %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "payment lookup failed", err)
	}
	return p, nil
}

// FindPaymentByKey looks for a payment on the same project with the same
// amount on the same day, the key the duplicate check uses. Returns the
// local id of the first match, or 0 when none exists.
func (s *Store) FindPaymentByKey(projectID, day string, amount float64) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM payments
		WHERE project_id = ? AND substr(date, 1, 10) = ? AND amount = ?
		  AND sync_status != ?
		ORDER BY id LIMIT 1`,
		projectID, day, amount, models.SyncStatusDeletedPending,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "payment key lookup failed", err)
	}
	return id, nil
}

// ListPayments returns all payments not pending deletion, newest first.
func (s *Store) ListPayments() ([]*models.Payment, error) {
	return queryAll(s, scanPayment,
		"SELECT "+paymentColumns+" FROM payments WHERE sync_status != ? ORDER BY date DESC, id DESC",
		models.SyncStatusDeletedPending,
	)
}

// GetPaymentsForProject returns a project's payments, newest first.
func (s *Store) GetPaymentsForProject(projectID string) ([]*models.Payment, error) {
	return queryAll(s, scanPayment,
		"SELECT "+paymentColumns+" FROM payments WHERE project_id = ? AND sync_status != ? ORDER BY date DESC, id DESC",
		projectID, models.SyncStatusDeletedPending,
	)
}

// ProjectRevenue sums a project's payments.
func (s *Store) ProjectRevenue(projectID string) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE project_id = ? AND sync_status != ?",
		projectID, models.SyncStatusDeletedPending,
	).Scan(&total)
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "revenue rollup failed", err)
	}
	return total, nil
}

// ListPendingPayments returns payments requiring a remote operation.
func (s *Store) ListPendingPayments() ([]*models.Payment, error) {
	return queryAll(s, scanPayment,
		"SELECT "+paymentColumns+" FROM payments WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
