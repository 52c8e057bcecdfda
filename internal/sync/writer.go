package sync

import (
	"context"
	"encoding/json"
	"strconv"
	stdsync "sync"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/logging"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
	"github.com/skywaveads/erp-core/internal/sync/queue"
)

// DefaultWorkers is the size of the background writer pool.
const DefaultWorkers = 4

type job struct {
	op       string
	table    string
	localID  int64
	remoteID string
}

// Writer mirrors local mutations to the remote store from a bounded
// worker pool. The user path only submits a job; every remote failure
// lands in the retry queue instead of surfacing.
type Writer struct {
	store      *db.Store
	supervisor *remote.Supervisor
	retry      *queue.RetryQueue

	jobs chan job
	wg   stdsync.WaitGroup

	// locks serializes remote writes per record so an update never
	// overtakes the insert that creates the record remotely.
	locksMu stdsync.Mutex
	locks   map[string]*stdsync.Mutex

	cancel    context.CancelFunc
	closeOnce stdsync.Once
}

// NewWriter creates a Writer with the given pool size. Zero uses the
// default.
func NewWriter(store *db.Store, supervisor *remote.Supervisor, retry *queue.RetryQueue, workers int) *Writer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	w := &Writer{
		store:      store,
		supervisor: supervisor,
		retry:      retry,
		jobs:       make(chan job, 256),
		locks:      make(map[string]*stdsync.Mutex),
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}
	return w
}

// Close stops the pool after draining submitted jobs. Safe to call more
// than once.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.jobs)
		w.wg.Wait()
		w.cancel()
	})
}

func (w *Writer) worker(ctx context.Context) {
	defer w.wg.Done()
	for j := range w.jobs {
		w.run(ctx, j)
	}
}

func (w *Writer) recordLock(table string, localID int64) *stdsync.Mutex {
	key := table + ":" + strconv.FormatInt(localID, 10)
	w.locksMu.Lock()
	defer w.locksMu.Unlock()
	mu, ok := w.locks[key]
	if !ok {
		mu = &stdsync.Mutex{}
		w.locks[key] = mu
	}
	return mu
}

// Submit queues a remote mirror of a local mutation. When the pool's
// buffer is full the job goes straight to the durable queue instead of
// blocking the caller.
func (w *Writer) submit(j job) {
	select {
	case w.jobs <- j:
	default:
		w.fallback(j, errors.New(errors.ErrQueueFull, "writer pool saturated"))
	}
}

// RecordCreated mirrors a newly created record.
func (w *Writer) RecordCreated(table string, localID int64) {
	w.submit(job{op: models.QueueOpInsert, table: table, localID: localID})
}

// RecordUpdated mirrors an updated record.
func (w *Writer) RecordUpdated(table string, localID int64) {
	w.submit(job{op: models.QueueOpUpdate, table: table, localID: localID})
}

// RecordDeleted mirrors a deletion. The local row is already gone; the
// remote id is all that is needed.
func (w *Writer) RecordDeleted(table string, localID int64, remoteID string) {
	w.submit(job{op: models.QueueOpDelete, table: table, localID: localID, remoteID: remoteID})
}

func (w *Writer) run(ctx context.Context, j job) {
	mu := w.recordLock(j.table, j.localID)
	mu.Lock()
	defer mu.Unlock()

	rs := w.supervisor.Store()
	if rs == nil {
		w.fallback(j, errors.New(errors.ErrRemoteUnavailable, "remote store is offline"))
		return
	}

	err := w.mirror(ctx, rs, j)
	if err == nil {
		return
	}
	if errors.Is(err, errors.ErrRemoteUnavailable) {
		w.supervisor.MarkOffline()
	}
	w.fallback(j, err)
}

// mirror performs the remote side of one mutation using the record's
// current local state.
func (w *Writer) mirror(ctx context.Context, rs remote.Store, j job) error {
	if j.op == models.QueueOpDelete {
		if j.remoteID == "" {
			return nil
		}
		return rs.Delete(ctx, j.table, j.remoteID)
	}

	codec, ok := CodecFor(j.table)
	if !ok {
		return errors.Newf(errors.ErrInternal, "no codec for table %q", j.table)
	}
	rec, err := codec.Load(w.store, j.localID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Deleted before the mirror ran; the delete job cleans up.
			return nil
		}
		return err
	}
	if rec.SyncStatus == models.SyncStatusSynced {
		// Another job already mirrored this state.
		return nil
	}

	models.StampOrigin(rec.Doc)
	if rec.RemoteID == "" {
		remoteID, err := rs.Insert(ctx, j.table, rec.Doc)
		if err != nil {
			return err
		}
		_, err = w.store.MarkSynced(j.table, j.localID, remoteID, rec.LastModified)
		return err
	}

	if err := rs.Update(ctx, j.table, rec.RemoteID, rec.Doc); err != nil {
		return err
	}
	_, err = w.store.MarkSynced(j.table, j.localID, rec.RemoteID, rec.LastModified)
	return err
}

// fallback records the job in the durable queue for the retry loop.
func (w *Writer) fallback(j job, cause error) {
	if j.op == models.QueueOpDelete && j.remoteID == "" {
		// Never reached the remote store; nothing to clean up there.
		return
	}
	entry := &models.SyncQueueEntry{
		EntityType:   j.table,
		EntityID:     j.localID,
		RemoteID:     j.remoteID,
		Operation:    j.op,
		ErrorMessage: cause.Error(),
	}

	if j.op != models.QueueOpDelete {
		codec, ok := CodecFor(j.table)
		if !ok {
			return
		}
		rec, err := codec.Load(w.store, j.localID)
		if err != nil {
			// The record is gone; its delete job carries the cleanup.
			return
		}
		entry.RemoteID = rec.RemoteID
		if payload, err := json.Marshal(rec.Doc); err == nil {
			entry.Payload = payload
		}
	}

	if err := w.retry.Enqueue(entry); err != nil {
		logging.Error("failed to queue remote operation", err, map[string]interface{}{
			"entity_type": j.table,
			"entity_id":   j.localID,
			"operation":   j.op,
		})
	}
}
