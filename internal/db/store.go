package db

import (
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

// Tables is the set of entity tables owned by the store, in sync order.
var Tables = []string{
	"clients", "projects", "invoices", "payments", "accounts",
	"expenses", "services", "users", "tasks",
}

var tableSet = func() map[string]bool {
	set := make(map[string]bool, len(Tables))
	for _, t := range Tables {
		set[t] = true
	}
	return set
}()

// rowScanner abstracts over *sql.Row and *sql.Rows for the per-entity
// scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// queryAll runs a read query and scans every row with the entity scan
// helper.
func queryAll[T any](s *Store, scan func(rowScanner) (*T, error), query string, args ...interface{}) ([]*T, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "query failed", err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrLocalStore, "row scan failed", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "row iteration failed", err)
	}
	return out, nil
}

// Store provides serialized write access to the local database. Reads run
// concurrently; every write funnels through the mutex so local writes for
// a single record are strictly ordered.
type Store struct {
	db *DB
	mu sync.Mutex
}

// NewStore creates a Store over an opened, migrated database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read-only queries.
func (s *Store) DB() *DB {
	return s.db
}

// exec runs a write statement under the store mutex.
func (s *Store) exec(query string, args ...interface{}) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Exec(query, args...)
}

func validTable(table string) error {
	if !tableSet[table] {
		return errors.Newf(errors.ErrInternal, "unknown entity table %q", table)
	}
	return nil
}

// parseLocalID turns a locator into a numeric local id, or 0 when the
// locator is not numeric (then only remote_id can match).
func parseLocalID(locator string) int64 {
	id, err := strconv.ParseInt(locator, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// ResolveLocalID resolves a locator (local id or remote id) to the row's
// local id.
func (s *Store) ResolveLocalID(table, locator string) (int64, error) {
	if err := validTable(table); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRow(
		"SELECT id FROM "+table+" WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, errors.Newf(errors.ErrNotFound, "%s %q not found", table, locator)
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "locator lookup failed", err)
	}
	return id, nil
}

// GetSyncMeta reads one row's sync bookkeeping.
func (s *Store) GetSyncMeta(table string, localID int64) (models.SyncMeta, error) {
	if err := validTable(table); err != nil {
		return models.SyncMeta{}, err
	}
	var m models.SyncMeta
	err := s.db.QueryRow(
		"SELECT id, remote_id, sync_status, created_at, last_modified FROM "+table+" WHERE id = ?",
		localID,
	).Scan(&m.LocalID, &m.RemoteID, &m.SyncStatus, &m.CreatedAt, &m.LastModified)
	if err == sql.ErrNoRows {
		return models.SyncMeta{}, errors.Newf(errors.ErrNotFound, "%s %d not found", table, localID)
	}
	if err != nil {
		return models.SyncMeta{}, errors.Wrap(errors.ErrLocalStore, "sync meta lookup failed", err)
	}
	return m, nil
}

// MarkSynced stitches the remote id onto a row and transitions it into
// synced. The remote id is attached whenever the row still lacks one:
// the remote document exists from the moment the insert succeeded, and
// losing the id would make the next push insert a second copy. Only the
// synced transition is guarded by last_modified, so a record mutated
// again while the remote write was in flight keeps its offline state,
// and the status guard never resurrects a deletion. Returns whether the
// row transitioned.
func (s *Store) MarkSynced(table string, localID int64, remoteID string, lastModified int64) (bool, error) {
	if err := validTable(table); err != nil {
		return false, err
	}
	if remoteID != "" {
		if _, err := s.exec(
			"UPDATE "+table+" SET remote_id = ? WHERE id = ? AND remote_id = ''",
			remoteID, localID,
		); err != nil {
			return false, errors.Wrap(errors.ErrLocalStore, "remote id stitch failed", err)
		}
	}
	res, err := s.exec(`
		UPDATE `+table+` SET sync_status = ?
		WHERE id = ? AND last_modified = ? AND sync_status IN (?, ?)`,
		models.SyncStatusSynced, localID, lastModified,
		models.SyncStatusNewOffline, models.SyncStatusModifiedOffline,
	)
	if err != nil {
		return false, errors.Wrap(errors.ErrLocalStore, "mark synced failed", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkDeletedPending transitions a row into deleted_pending.
func (s *Store) MarkDeletedPending(table string, localID int64) error {
	if err := validTable(table); err != nil {
		return err
	}
	_, err := s.exec(
		"UPDATE "+table+" SET sync_status = ?, last_modified = ? WHERE id = ?",
		models.SyncStatusDeletedPending, time.Now().Unix(), localID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "mark deleted failed", err)
	}
	return nil
}

// RemoveRow hard-deletes a row. Local ids are rowids and are never reused
// thanks to AUTOINCREMENT.
func (s *Store) RemoveRow(table string, localID int64) error {
	if err := validTable(table); err != nil {
		return err
	}
	_, err := s.exec("DELETE FROM "+table+" WHERE id = ?", localID)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "row delete failed", err)
	}
	return nil
}

// CountRows returns the number of rows in an entity table.
func (s *Store) CountRows(table string) (int, error) {
	if err := validTable(table); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

// NextSequence atomically increments and returns the named counter. This
// replaces the old read-then-increment-then-recheck pattern on a shared
// counter table.
func (s *Store) NextSequence(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value int64
	err := s.db.QueryRow(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`, name,
	).Scan(&value)
	if err != nil {
		return 0, errors.Wrap(errors.ErrLocalStore, "sequence increment failed", err)
	}
	return value, nil
}
