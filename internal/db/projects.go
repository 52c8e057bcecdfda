package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const projectColumns = `id, remote_id, sync_status, created_at, last_modified,
	name, client_id, status, description, start_date, end_date, total_amount,
	currency, notes`

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.LocalID, &p.RemoteID, &p.SyncStatus, &p.CreatedAt, &p.LastModified,
		&p.Name, &p.ClientID, &p.Status, &p.Description, &p.StartDate,
		&p.EndDate, &p.TotalAmount, &p.Currency, &p.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertProject inserts a project and assigns its local id.
func (s *Store) InsertProject(p *models.Project) error {
	res, err := s.exec(`
		INSERT INTO projects (remote_id, sync_status, created_at, last_modified,
			name, client_id, status, description, start_date, end_date,
			total_amount, currency, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RemoteID, p.SyncStatus, p.CreatedAt, p.LastModified,
		p.Name, p.ClientID, p.Status, p.Description, p.StartDate, p.EndDate,
		p.TotalAmount, p.Currency, p.Notes,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "project insert failed", err)
	}
	p.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "project insert id", err)
	}
	return nil
}

// UpdateProject writes a project's fields by local id.
func (s *Store) UpdateProject(p *models.Project) error {
	res, err := s.exec(`
		UPDATE projects SET
			sync_status = ?, last_modified = ?,
			name = ?, client_id = ?, status = ?, description = ?,
			start_date = ?, end_date = ?, total_amount = ?, currency = ?, notes = ?
		WHERE id = ?`,
		p.SyncStatus, p.LastModified,
		p.Name, p.ClientID, p.Status, p.Description, p.StartDate, p.EndDate,
		p.TotalAmount, p.Currency, p.Notes,
		p.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "project update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "project %d not found", p.LocalID)
	}
	return nil
}

// GetProject retrieves a project by locator (local id or remote id).
func (s *Store) GetProject(locator string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRow(
		"SELECT "+projectColumns+" FROM projects WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "project %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "project lookup failed", err)
	}
	return p, nil
}

// ListProjects returns projects with the given record status.
func (s *Store) ListProjects(status string) ([]*models.Project, error) {
	return queryAll(s, scanProject,
		"SELECT "+projectColumns+" FROM projects WHERE status = ? AND sync_status != ? ORDER BY name",
		status, models.SyncStatusDeletedPending,
	)
}

// ListProjectsForClient returns a client's active projects.
func (s *Store) ListProjectsForClient(clientID string) ([]*models.Project, error) {
	return queryAll(s, scanProject,
		"SELECT "+projectColumns+" FROM projects WHERE client_id = ? AND status = ? ORDER BY name",
		clientID, models.StatusActive,
	)
}

// ListPendingProjects returns projects requiring a remote operation.
func (s *Store) ListPendingProjects() ([]*models.Project, error) {
	return queryAll(s, scanProject,
		"SELECT "+projectColumns+" FROM projects WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
