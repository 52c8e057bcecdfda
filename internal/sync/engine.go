package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/events"
	"github.com/skywaveads/erp-core/internal/logging"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
	"github.com/skywaveads/erp-core/internal/sync/conflict"
	"github.com/skywaveads/erp-core/internal/sync/queue"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Drained  int           `json:"drained"`
	Pushed   int           `json:"pushed"`
	Deleted  int           `json:"deleted"`
	Pulled   int           `json:"pulled"`
	Merged   int           `json:"merged"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Reconciler converges the two stores: it drains the retry queue, pulls
// remote changes made by other installations, then pushes records left
// in an offline state. Running it twice in a row is a no-op the second
// time.
type Reconciler struct {
	store      *db.Store
	supervisor *remote.Supervisor
	retry      *queue.RetryQueue
	resolver   *conflict.Resolver
	bus        *events.Bus

	mu       stdsync.Mutex
	running  bool
	lastRun  time.Time
	lastErr  error
}

// NewReconciler creates a Reconciler. The bus may be nil.
func NewReconciler(store *db.Store, supervisor *remote.Supervisor, retry *queue.RetryQueue, bus *events.Bus) *Reconciler {
	return &Reconciler{
		store:      store,
		supervisor: supervisor,
		retry:      retry,
		resolver:   conflict.NewResolver(),
		bus:        bus,
	}
}

// Running reports whether a pass is in flight.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastRun returns when the last pass finished and its error.
func (r *Reconciler) LastRun() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastErr
}

func (r *Reconciler) publish(topic, payload string) {
	if r.bus != nil {
		r.bus.Publish(topic, payload)
	}
}

// DrainQueue replays due retry-queue entries without a full pass. Cheap
// when the queue is empty; a no-op while offline.
func (r *Reconciler) DrainQueue(ctx context.Context) error {
	_, err := r.retry.Drain(ctx)
	return err
}

// Run performs one reconciliation pass. Only one pass runs at a time; a
// concurrent call returns immediately with an empty result.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return &Result{}, nil
	}
	r.running = true
	r.mu.Unlock()

	start := time.Now()
	res, err := r.reconcile(ctx)
	res.Duration = time.Since(start)

	r.mu.Lock()
	r.running = false
	r.lastRun = time.Now()
	r.lastErr = err
	r.mu.Unlock()

	return res, err
}

// reconnect re-invokes the supervisor's probe and waits for its outcome,
// so a user-triggered "sync now" works in one call after connectivity
// returns instead of only arming the next pass.
func (r *Reconciler) reconnect(ctx context.Context) remote.Store {
	r.supervisor.Start(ctx)

	deadline := time.Now().Add(remote.ConnectTimeout)
	for time.Now().Before(deadline) {
		if rs := r.supervisor.Store(); rs != nil {
			return rs
		}
		if r.supervisor.LastError() != nil {
			// The probe finished and failed; stay offline.
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(25 * time.Millisecond):
		}
	}
	return nil
}

func (r *Reconciler) reconcile(ctx context.Context) (*Result, error) {
	res := &Result{}

	rs := r.supervisor.Store()
	if rs == nil {
		rs = r.reconnect(ctx)
		if rs == nil {
			return res, nil
		}
	}

	r.publish(events.SyncStarted, "")
	defer r.publish(events.SyncFinished, "")

	drained, err := r.retry.Drain(ctx)
	res.Drained = drained
	if err != nil {
		return res, err
	}

	// Pull first: a remote document newer than a pending local edit must
	// overwrite it before the push side could upload the stale edit.
	for _, codec := range Codecs() {
		before := res.Pulled + res.Merged
		if err := r.pullTable(ctx, rs, codec, res); err != nil {
			return res, err
		}
		if !r.supervisor.IsOnline() {
			return res, nil
		}
		if res.Pulled+res.Merged > before {
			r.publish(events.EntityChanged, codec.Table)
		}
	}

	for _, codec := range Codecs() {
		if err := r.pushTable(ctx, rs, codec, res); err != nil {
			return res, err
		}
		if !r.supervisor.IsOnline() {
			return res, nil
		}
	}

	logging.Info("reconciliation finished", map[string]interface{}{
		"drained": res.Drained,
		"pushed":  res.Pushed,
		"deleted": res.Deleted,
		"pulled":  res.Pulled,
		"merged":  res.Merged,
		"skipped": res.Skipped,
	})
	return res, nil
}

// pushTable sends records stuck in an offline state to the remote store.
func (r *Reconciler) pushTable(ctx context.Context, rs remote.Store, codec Codec, res *Result) error {
	pending, err := codec.ListPending(r.store)
	if err != nil {
		return err
	}

	for _, rec := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Records with live queue entries are owned by the retry loop;
		// pushing them here too would double-send.
		entries, err := r.store.QueueEntriesForRecord(codec.Table, rec.LocalID)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			res.Skipped++
			continue
		}

		if err := r.pushRecord(ctx, rs, codec, rec, res); err != nil {
			if errors.Is(err, errors.ErrRemoteUnavailable) {
				r.supervisor.MarkOffline()
				return nil
			}
			return err
		}
	}
	return nil
}

func (r *Reconciler) pushRecord(ctx context.Context, rs remote.Store, codec Codec, rec Pending, res *Result) error {
	switch rec.SyncStatus {
	case models.SyncStatusDeletedPending:
		if rec.RemoteID != "" {
			if err := rs.Delete(ctx, codec.Table, rec.RemoteID); err != nil {
				return err
			}
		}
		if err := r.store.RemoveRow(codec.Table, rec.LocalID); err != nil {
			return err
		}
		res.Deleted++
		return nil

	default:
		models.StampOrigin(rec.Doc)
		if rec.RemoteID == "" {
			remoteID, err := rs.Insert(ctx, codec.Table, rec.Doc)
			if err != nil {
				return err
			}
			if _, err := r.store.MarkSynced(codec.Table, rec.LocalID, remoteID, rec.LastModified); err != nil {
				return err
			}
		} else {
			if err := rs.Update(ctx, codec.Table, rec.RemoteID, rec.Doc); err != nil {
				return err
			}
			if _, err := r.store.MarkSynced(codec.Table, rec.LocalID, rec.RemoteID, rec.LastModified); err != nil {
				return err
			}
		}
		res.Pushed++
		return nil
	}
}

// pullTable applies remote documents created or changed by other
// installations.
func (r *Reconciler) pullTable(ctx context.Context, rs remote.Store, codec Codec, res *Result) error {
	docs, err := rs.FetchAll(ctx, codec.Table)
	if err != nil {
		if errors.Is(err, errors.ErrRemoteUnavailable) {
			r.supervisor.MarkOffline()
			return nil
		}
		return err
	}

	// Remote ids with a queued delete are locally deleted records whose
	// remote cleanup has not landed yet; pulling them back would undo
	// the deletion.
	tombstones, err := r.store.DeleteTombstones(codec.Table)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		remoteID := models.RemoteIDOf(doc)
		if remoteID == "" || tombstones[remoteID] {
			res.Skipped++
			continue
		}

		localID, err := r.store.ResolveLocalID(codec.Table, remoteID)
		if errors.Is(err, errors.ErrNotFound) {
			if err := codec.InsertLocal(r.store, doc); err != nil {
				return err
			}
			res.Pulled++
			continue
		}
		if err != nil {
			return err
		}

		meta, err := r.store.GetSyncMeta(codec.Table, localID)
		if err != nil {
			return err
		}
		switch r.resolver.Resolve(codec.Table, meta, models.LastModifiedOf(doc)) {
		case conflict.ApplyRemote:
			if err := codec.MergeRemote(r.store, localID, doc); err != nil {
				return err
			}
			res.Merged++
		default:
			res.Skipped++
		}
	}
	return nil
}
