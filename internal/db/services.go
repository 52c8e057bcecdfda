package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const serviceColumns = `id, remote_id, sync_status, created_at, last_modified,
	name, description, default_price, category, status`

func scanService(row rowScanner) (*models.Service, error) {
	var sv models.Service
	err := row.Scan(
		&sv.LocalID, &sv.RemoteID, &sv.SyncStatus, &sv.CreatedAt, &sv.LastModified,
		&sv.Name, &sv.Description, &sv.DefaultPrice, &sv.Category, &sv.Status,
	)
	if err != nil {
		return nil, err
	}
	return &sv, nil
}

// InsertService inserts a service and assigns its local id.
func (s *Store) InsertService(sv *models.Service) error {
	res, err := s.exec(`
		INSERT INTO services (remote_id, sync_status, created_at, last_modified,
			name, description, default_price, category, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.RemoteID, sv.SyncStatus, sv.CreatedAt, sv.LastModified,
		sv.Name, sv.Description, sv.DefaultPrice, sv.Category, sv.Status,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "service insert failed", err)
	}
	sv.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "service insert id", err)
	}
	return nil
}

// UpdateService writes a service's fields by local id.
func (s *Store) UpdateService(sv *models.Service) error {
	res, err := s.exec(`
		UPDATE services SET
			sync_status = ?, last_modified = ?,
			name = ?, description = ?, default_price = ?, category = ?,
			status = ?
		WHERE id = ?`,
		sv.SyncStatus, sv.LastModified,
		sv.Name, sv.Description, sv.DefaultPrice, sv.Category, sv.Status,
		sv.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "service update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "service %d not found", sv.LocalID)
	}
	return nil
}

// GetService retrieves a service by locator (local id or remote id).
func (s *Store) GetService(locator string) (*models.Service, error) {
	sv, err := scanService(s.db.QueryRow(
		"SELECT "+serviceColumns+" FROM services WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "service %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "service lookup failed", err)
	}
	return sv, nil
}

// ListServices returns services with the given record status, ordered by
// name.
func (s *Store) ListServices(status string) ([]*models.Service, error) {
	return queryAll(s, scanService,
		"SELECT "+serviceColumns+" FROM services WHERE status = ? AND sync_status != ? ORDER BY name",
		status, models.SyncStatusDeletedPending,
	)
}

// ListPendingServices returns services requiring a remote operation.
func (s *Store) ListPendingServices() ([]*models.Service, error) {
	return queryAll(s, scanService,
		"SELECT "+serviceColumns+" FROM services WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
