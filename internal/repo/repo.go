// Package repo is the application-facing surface of the engine. Every
// operation completes against the local store and returns; the remote
// mirror happens in the background and its failures never reach callers.
package repo

import (
	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/dupcheck"
	"github.com/skywaveads/erp-core/internal/events"
	"github.com/skywaveads/erp-core/internal/logging"
	syncpkg "github.com/skywaveads/erp-core/internal/sync"
)

// Repository coordinates the local store, duplicate checks, the read
// cache and the background writer behind one API.
type Repository struct {
	store  *db.Store
	cache  *cache.Manager
	guard  *dupcheck.Guard
	writer *syncpkg.Writer
	bus    *events.Bus
}

// New assembles a Repository. The writer and bus may be nil (reads and
// local writes still work; nothing is mirrored or published).
func New(store *db.Store, cacheMgr *cache.Manager, writer *syncpkg.Writer, bus *events.Bus) *Repository {
	if cacheMgr == nil {
		cacheMgr = cache.New(0, 0)
	}
	return &Repository{
		store:  store,
		cache:  cacheMgr,
		guard:  dupcheck.NewGuard(store),
		writer: writer,
		bus:    bus,
	}
}

// Store exposes the underlying local store for callers that need raw
// queries.
func (r *Repository) Store() *db.Store {
	return r.store
}

// CacheStats reports read-cache effectiveness.
func (r *Repository) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// invalidate drops cached reads for an entity type and notifies
// subscribers that the type changed.
func (r *Repository) invalidate(table string) {
	r.cache.InvalidateType(table)
	if r.bus != nil {
		r.bus.Publish(events.EntityChanged, table)
	}
}

// mirrorCreate hands a fresh record to the background writer.
func (r *Repository) mirrorCreate(table string, localID int64) {
	if r.writer != nil {
		r.writer.RecordCreated(table, localID)
	}
}

// mirrorUpdate hands an updated record to the background writer.
func (r *Repository) mirrorUpdate(table string, localID int64) {
	if r.writer != nil {
		r.writer.RecordUpdated(table, localID)
	}
}

// deleteRecord removes a row locally and mirrors the deletion. The local
// row disappears immediately; queued inserts and updates for it are
// dropped so they cannot recreate it remotely.
func (r *Repository) deleteRecord(table, locator string) error {
	localID, err := r.store.ResolveLocalID(table, locator)
	if err != nil {
		return err
	}
	meta, err := r.store.GetSyncMeta(table, localID)
	if err != nil {
		return err
	}

	if err := r.store.ClearQueueForRecord(table, localID); err != nil {
		return err
	}
	if err := r.store.RemoveRow(table, localID); err != nil {
		return err
	}
	r.invalidate(table)

	if r.writer != nil {
		r.writer.RecordDeleted(table, localID, meta.RemoteID)
	}
	logging.Info("record deleted", map[string]interface{}{
		"entity_type": table,
		"local_id":    localID,
	})
	return nil
}

// listCached serves a listing from the cache, loading and caching it on a
// miss.
func listCached[T any](r *Repository, key string, load func() ([]*T, error)) ([]*T, error) {
	if v, ok := r.cache.Get(key); ok {
		if list, ok := v.([]*T); ok {
			return list, nil
		}
	}
	list, err := load()
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, list)
	return list, nil
}
