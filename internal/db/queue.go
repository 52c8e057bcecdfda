package db

import (
	"time"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const queueColumns = `id, entity_type, entity_id, remote_id, operation,
	payload, status, retry_count, max_retries, next_retry_at, last_attempt,
	error_message, created_at`

func scanQueueEntry(row rowScanner) (*models.SyncQueueEntry, error) {
	var e models.SyncQueueEntry
	var payload string
	err := row.Scan(
		&e.ID, &e.EntityType, &e.EntityID, &e.RemoteID, &e.Operation,
		&payload, &e.Status, &e.RetryCount, &e.MaxRetries, &e.NextRetryAt,
		&e.LastAttempt, &e.ErrorMessage, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = []byte(payload)
	return &e, nil
}

// EnqueueOp appends a remote operation to the durable queue. An existing
// pending entry for the same record and operation is replaced so a burst
// of edits collapses into one outstanding write.
func (s *Store) EnqueueOp(e *models.SyncQueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = models.DefaultMaxRetries
	}
	if e.Status == "" {
		e.Status = models.QueueStatusPending
	}

	if _, err := s.db.Exec(`
		DELETE FROM sync_queue
		WHERE entity_type = ? AND entity_id = ? AND operation = ? AND status = ?`,
		e.EntityType, e.EntityID, e.Operation, models.QueueStatusPending,
	); err != nil {
		return errors.Wrap(errors.ErrLocalStore, "queue dedupe failed", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO sync_queue (entity_type, entity_id, remote_id, operation,
			payload, status, retry_count, max_retries, next_retry_at,
			last_attempt, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EntityType, e.EntityID, e.RemoteID, e.Operation,
		string(e.Payload), e.Status, e.RetryCount, e.MaxRetries,
		e.NextRetryAt, e.LastAttempt, e.ErrorMessage, e.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "queue insert failed", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "queue insert id", err)
	}
	return nil
}

// DueQueueEntries returns pending entries whose backoff window has
// elapsed, oldest first.
func (s *Store) DueQueueEntries(now int64, limit int) ([]*models.SyncQueueEntry, error) {
	return queryAll(s, scanQueueEntry,
		`SELECT `+queueColumns+` FROM sync_queue
		 WHERE status = ? AND next_retry_at <= ?
		 ORDER BY id LIMIT ?`,
		models.QueueStatusPending, now, limit,
	)
}

// QueueEntriesForRecord returns every queue entry for one record.
func (s *Store) QueueEntriesForRecord(entityType string, entityID int64) ([]*models.SyncQueueEntry, error) {
	return queryAll(s, scanQueueEntry,
		"SELECT "+queueColumns+" FROM sync_queue WHERE entity_type = ? AND entity_id = ? ORDER BY id",
		entityType, entityID,
	)
}

// DeleteTombstones returns the remote ids of pending delete operations
// for an entity type. Reconciliation skips these when pulling remote
// records so a locally deleted record is not resurrected.
func (s *Store) DeleteTombstones(entityType string) (map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT remote_id FROM sync_queue
		WHERE entity_type = ? AND operation = ? AND remote_id != ''`,
		entityType, models.QueueOpDelete,
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "tombstone query failed", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(errors.ErrLocalStore, "tombstone scan failed", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// RecordQueueFailure bumps an entry's retry bookkeeping after a failed
// attempt. Entries that exhaust their retries move to failed and stay in
// the table for inspection.
func (s *Store) RecordQueueFailure(id int64, nextRetryAt int64, errMsg string) error {
	_, err := s.exec(`
		UPDATE sync_queue SET
			retry_count = retry_count + 1,
			last_attempt = ?,
			next_retry_at = ?,
			error_message = ?,
			status = CASE WHEN retry_count + 1 >= max_retries THEN ? ELSE status END
		WHERE id = ?`,
		time.Now().Unix(), nextRetryAt, errMsg, models.QueueStatusFailed, id,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "queue failure update failed", err)
	}
	return nil
}

// ClearQueueForRecord drops every queued insert and update for a record.
// Called when the record is deleted so a queued write cannot recreate it
// remotely; delete entries stay.
func (s *Store) ClearQueueForRecord(entityType string, entityID int64) error {
	_, err := s.exec(
		"DELETE FROM sync_queue WHERE entity_type = ? AND entity_id = ? AND operation != ?",
		entityType, entityID, models.QueueOpDelete,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "queue clear failed", err)
	}
	return nil
}

// RemoveQueueEntry deletes a completed entry.
func (s *Store) RemoveQueueEntry(id int64) error {
	_, err := s.exec("DELETE FROM sync_queue WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "queue delete failed", err)
	}
	return nil
}

// RequeueFailed resets failed entries to pending with a fresh retry
// budget, for a manual retry after the underlying problem is fixed.
func (s *Store) RequeueFailed() (int64, error) {
	res, err := s.exec(
		"UPDATE sync_queue SET status = ?, retry_count = 0, next_retry_at = 0, error_message = '' WHERE status = ?",
		models.QueueStatusPending, models.QueueStatusFailed,
	)
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "requeue failed", err)
	}
	return res.RowsAffected()
}

// QueueStats returns the number of entries per queue status.
func (s *Store) QueueStats() (map[string]int, error) {
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM sync_queue GROUP BY status")
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "queue stats failed", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(errors.ErrLocalStore, "queue stats scan failed", err)
		}
		stats[status] = n
	}
	return stats, rows.Err()
}
