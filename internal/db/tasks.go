package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const taskColumns = `id, remote_id, sync_status, created_at, last_modified,
	title, description, status, priority, assigned_to, due_date, project_id`

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.LocalID, &t.RemoteID, &t.SyncStatus, &t.CreatedAt, &t.LastModified,
		&t.Title, &t.Description, &t.Status, &t.Priority, &t.AssignedTo,
		&t.DueDate, &t.ProjectID,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTask inserts a task and assigns its local id.
func (s *Store) InsertTask(t *models.Task) error {
	res, err := s.exec(`
		INSERT INTO tasks (remote_id, sync_status, created_at, last_modified,
			title, description, status, priority, assigned_to, due_date,
			project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RemoteID, t.SyncStatus, t.CreatedAt, t.LastModified,
		t.Title, t.Description, t.Status, t.Priority, t.AssignedTo,
		t.DueDate, t.ProjectID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "task insert failed", err)
	}
	t.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "task insert id", err)
	}
	return nil
}

// UpdateTask writes a task's fields by local id.
func (s *Store) UpdateTask(t *models.Task) error {
	res, err := s.exec(`
		UPDATE tasks SET
			sync_status = ?, last_modified = ?,
			title = ?, description = ?, status = ?, priority = ?,
			assigned_to = ?, due_date = ?, project_id = ?
		WHERE id = ?`,
		t.SyncStatus, t.LastModified,
		t.Title, t.Description, t.Status, t.Priority, t.AssignedTo,
		t.DueDate, t.ProjectID,
		t.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "task update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "task %d not found", t.LocalID)
	}
	return nil
}

// GetTask retrieves a task by locator (local id or remote id).
func (s *Store) GetTask(locator string) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRow(
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "task %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "task lookup failed", err)
	}
	return t, nil
}

// ListTasks returns all tasks not pending deletion, open work first.
func (s *Store) ListTasks() ([]*models.Task, error) {
	return queryAll(s, scanTask,
		"SELECT "+taskColumns+" FROM tasks WHERE sync_status != ? ORDER BY status, due_date, id",
		models.SyncStatusDeletedPending,
	)
}

// ListTasksForProject returns a project's tasks.
func (s *Store) ListTasksForProject(projectID string) ([]*models.Task, error) {
	return queryAll(s, scanTask,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND sync_status != ? ORDER BY status, due_date, id",
		projectID, models.SyncStatusDeletedPending,
	)
}

// ListPendingTasks returns tasks requiring a remote operation.
func (s *Store) ListPendingTasks() ([]*models.Task, error) {
	return queryAll(s, scanTask,
		"SELECT "+taskColumns+" FROM tasks WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}
