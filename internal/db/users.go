package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const userColumns = `id, remote_id, sync_status, created_at, last_modified,
	username, password_hash, role, full_name, email, is_active, last_login`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.LocalID, &u.RemoteID, &u.SyncStatus, &u.CreatedAt, &u.LastModified,
		&u.Username, &u.PasswordHash, &u.Role, &u.FullName, &u.Email,
		&u.IsActive, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser inserts a user and assigns its local id.
func (s *Store) InsertUser(u *models.User) error {
	res, err := s.exec(`
		INSERT INTO users (remote_id, sync_status, created_at, last_modified,
			username, password_hash, role, full_name, email, is_active,
			last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.RemoteID, u.SyncStatus, u.CreatedAt, u.LastModified,
		u.Username, u.PasswordHash, u.Role, u.FullName, u.Email, u.IsActive,
		u.LastLogin,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "user insert failed", err)
	}
	u.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "user insert id", err)
	}
	return nil
}

// UpdateUser writes a user's fields by local id.
func (s *Store) UpdateUser(u *models.User) error {
	res, err := s.exec(`
		UPDATE users SET
			sync_status = ?, last_modified = ?,
			username = ?, password_hash = ?, role = ?, full_name = ?,
			email = ?, is_active = ?, last_login = ?
		WHERE id = ?`,
		u.SyncStatus, u.LastModified,
		u.Username, u.PasswordHash, u.Role, u.FullName, u.Email, u.IsActive,
		u.LastLogin,
		u.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "user update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "user %d not found", u.LocalID)
	}
	return nil
}

// GetUser retrieves a user by locator (local id or remote id).
func (s *Store) GetUser(locator string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "user %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "user lookup failed", err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by their unique username. Usernames
// are unique regardless of case, so the comparison ignores it too.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE username = ? COLLATE NOCASE",
		username,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "user %q not found", username)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "user lookup failed", err)
	}
	return u, nil
}

// ListUsers returns all users not pending deletion, ordered by username.
func (s *Store) ListUsers() ([]*models.User, error) {
	return queryAll(s, scanUser,
		"SELECT "+userColumns+" FROM users WHERE sync_status != ? ORDER BY username",
		models.SyncStatusDeletedPending,
	)
}

// ListPendingUsers returns users requiring a remote operation.
func (s *Store) ListPendingUsers() ([]*models.User, error) {
	return queryAll(s, scanUser,
		"SELECT "+userColumns+" FROM users WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
