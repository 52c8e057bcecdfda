package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const accountColumns = `id, remote_id, sync_status, created_at, last_modified,
	name, code, type, parent_id, balance, currency, description, status`

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.LocalID, &a.RemoteID, &a.SyncStatus, &a.CreatedAt, &a.LastModified,
		&a.Name, &a.Code, &a.Type, &a.ParentID, &a.Balance, &a.Currency,
		&a.Description, &a.Status,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAccount inserts an account and assigns its local id.
func (s *Store) InsertAccount(a *models.Account) error {
	res, err := s.exec(`
		INSERT INTO accounts (remote_id, sync_status, created_at, last_modified,
			name, code, type, parent_id, balance, currency, description, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RemoteID, a.SyncStatus, a.CreatedAt, a.LastModified,
		a.Name, a.Code, a.Type, a.ParentID, a.Balance, a.Currency,
		a.Description, a.Status,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "account insert failed", err)
	}
	a.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "account insert id", err)
	}
	return nil
}

// UpdateAccount writes an account's fields by local id.
func (s *Store) UpdateAccount(a *models.Account) error {
	res, err := s.exec(`
		UPDATE accounts SET
			sync_status = ?, last_modified = ?,
			name = ?, code = ?, type = ?, parent_id = ?, balance = ?,
			currency = ?, description = ?, status = ?
		WHERE id = ?`,
		a.SyncStatus, a.LastModified,
		a.Name, a.Code, a.Type, a.ParentID, a.Balance, a.Currency,
		a.Description, a.Status,
		a.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "account update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "account %d not found", a.LocalID)
	}
	return nil
}

// AdjustAccountBalance applies a delta to an account's balance and marks
// the account for sync.
func (s *Store) AdjustAccountBalance(localID int64, delta float64, now int64) error {
	res, err := s.exec(`
		UPDATE accounts SET
			balance = balance + ?,
			sync_status = CASE WHEN sync_status = ? THEN ? ELSE sync_status END,
			last_modified = ?
		WHERE id = ?`,
		delta, models.SyncStatusSynced, models.SyncStatusModifiedOffline,
		now, localID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "balance adjust failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "account %d not found", localID)
	}
	return nil
}

// GetAccount retrieves an account by locator (local id or remote id).
func (s *Store) GetAccount(locator string) (*models.Account, error) {
	a, err := scanAccount(s.db.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "account %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "account lookup failed", err)
	}
	return a, nil
}

// GetAccountByCode retrieves an active account by its code. Codes are
// unique among active accounts only, so archived accounts never match.
func (s *Store) GetAccountByCode(code string) (*models.Account, error) {
	a, err := scanAccount(s.db.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE code = ? AND status = ?",
		code, models.StatusActive,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "account %q not found", code)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "account lookup failed", err)
	}
	return a, nil
}

// ListAccounts returns accounts with the given record status, ordered by
// code.
func (s *Store) ListAccounts(status string) ([]*models.Account, error) {
	return queryAll(s, scanAccount,
		"SELECT "+accountColumns+" FROM accounts WHERE status = ? AND sync_status != ? ORDER BY code",
		status, models.SyncStatusDeletedPending,
	)
}

// ListPendingAccounts returns accounts requiring a remote operation.
func (s *Store) ListPendingAccounts() ([]*models.Account, error) {
	return queryAll(s, scanAccount,
		"SELECT "+accountColumns+" FROM accounts WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
