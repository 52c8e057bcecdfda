package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const expenseColumns = `id, remote_id, sync_status, created_at, last_modified,
	date, category, amount, description, account_id, payment_account_id,
	project_id`

func scanExpense(row rowScanner) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(
		&e.LocalID, &e.RemoteID, &e.SyncStatus, &e.CreatedAt, &e.LastModified,
		&e.Date, &e.Category, &e.Amount, &e.Description, &e.AccountID,
		&e.PaymentAccountID, &e.ProjectID,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertExpense inserts an expense and assigns its local id.
func (s *Store) InsertExpense(e *models.Expense) error {
	res, err := s.exec(`
		INSERT INTO expenses (remote_id, sync_status, created_at, last_modified,
			date, category, amount, description, account_id,
			payment_account_id, project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RemoteID, e.SyncStatus, e.CreatedAt, e.LastModified,
		e.Date, e.Category, e.Amount, e.Description, e.AccountID,
		e.PaymentAccountID, e.ProjectID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "expense insert failed", err)
	}
	e.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "expense insert id", err)
	}
	return nil
}

// UpdateExpense writes an expense's fields by local id.
func (s *Store) UpdateExpense(e *models.Expense) error {
	res, err := s.exec(`
		UPDATE expenses SET
			sync_status = ?, last_modified = ?,
			date = ?, category = ?, amount = ?, description = ?,
			account_id = ?, payment_account_id = ?, project_id = ?
		WHERE id = ?`,
		e.SyncStatus, e.LastModified,
		e.Date, e.Category, e.Amount, e.Description, e.AccountID,
		e.PaymentAccountID, e.ProjectID,
		e.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "expense update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "expense %d not found", e.LocalID)
	}
	return nil
}

// GetExpense retrieves an expense by locator (local id or remote id).
func (s *Store) GetExpense(locator string) (*models.Expense, error) {
	e, err := scanExpense(s.db.QueryRow(
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "expense %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "expense lookup failed", err)
	}
	return e, nil
}

// FindExpenseByKey looks for an expense in the same project and category
// with the same amount on the same day. Returns the local id of the
// first match, or 0 when none exists.
func (s *Store) FindExpenseByKey(projectID, category, day string, amount float64) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM expenses
		WHERE project_id = ? AND category = ? AND substr(date, 1, 10) = ?
		  AND amount = ? AND sync_status != ?
		ORDER BY id LIMIT 1`,
		projectID, category, day, amount, models.SyncStatusDeletedPending,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "expense key lookup failed", err)
	}
	return id, nil
}

// ListExpenses returns all expenses not pending deletion, newest first.
func (s *Store) ListExpenses() ([]*models.Expense, error) {
	return queryAll(s, scanExpense,
		"SELECT "+expenseColumns+" FROM expenses WHERE sync_status != ? ORDER BY date DESC, id DESC",
		models.SyncStatusDeletedPending,
	)
}

// ListExpensesForProject returns a project's expenses, newest first.
func (s *Store) ListExpensesForProject(projectID string) ([]*models.Expense, error) {
	return queryAll(s, scanExpense,
		"SELECT "+expenseColumns+" FROM expenses WHERE project_id = ? AND sync_status != ? ORDER BY date DESC, id DESC",
		projectID, models.SyncStatusDeletedPending,
	)
}

// ProjectExpenses sums a project's expenses.
func (s *Store) ProjectExpenses(projectID string) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE project_id = ? AND sync_status != ?",
		projectID, models.SyncStatusDeletedPending,
	).Scan(&total)
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "expense rollup failed", err)
	}
	return total, nil
}

// ListPendingExpenses returns expenses requiring a remote operation.
func (s *Store) ListPendingExpenses() ([]*models.Expense, error) {
	return queryAll(s, scanExpense,
		"SELECT "+expenseColumns+" FROM expenses WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
