// Package queue drains the durable sync_queue table: remote operations
// that failed on their first attempt are retried here with exponential
// backoff until they succeed or exhaust their retry budget.
package queue

import (
	"context"
	"time"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/logging"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
)

// DrainBatchSize caps how many entries one pass processes.
const DrainBatchSize = 50

// backoffCap is the longest delay between retries of one entry.
const backoffCap = 3600

// Backoff returns the retry delay in seconds for the given attempt
// count: 2^n minutes, capped at one hour.
func Backoff(retryCount int) int64 {
	if retryCount > 6 {
		return backoffCap
	}
	delay := (int64(1) << uint(retryCount)) * 60
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}

// RetryQueue replays failed remote operations from the durable queue.
type RetryQueue struct {
	store      *db.Store
	supervisor *remote.Supervisor
}

// New creates a RetryQueue.
func New(store *db.Store, supervisor *remote.Supervisor) *RetryQueue {
	return &RetryQueue{store: store, supervisor: supervisor}
}

// Enqueue records a remote operation for later replay.
func (q *RetryQueue) Enqueue(entry *models.SyncQueueEntry) error {
	if err := q.store.EnqueueOp(entry); err != nil {
		return err
	}
	logging.Debug("queued remote operation for retry", map[string]interface{}{
		"entity_type": entry.EntityType,
		"entity_id":   entry.EntityID,
		"operation":   entry.Operation,
	})
	return nil
}

// Drain processes due entries against the remote store. It stops early
// when the remote becomes unreachable; everything left stays queued.
// Returns how many entries completed.
func (q *RetryQueue) Drain(ctx context.Context) (int, error) {
	rs := q.supervisor.Store()
	if rs == nil {
		return 0, nil
	}

	due, err := q.store.DueQueueEntries(time.Now().Unix(), DrainBatchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, entry := range due {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := q.replay(ctx, rs, entry); err != nil {
			nextRetry := time.Now().Unix() + Backoff(entry.RetryCount)
			if recErr := q.store.RecordQueueFailure(entry.ID, nextRetry, err.Error()); recErr != nil {
				return done, recErr
			}
			logging.Warn("queued operation failed", map[string]interface{}{
				"entity_type": entry.EntityType,
				"entity_id":   entry.EntityID,
				"operation":   entry.Operation,
				"retry_count": entry.RetryCount + 1,
				"error":       err.Error(),
			})
			q.supervisor.MarkOffline()
			return done, nil
		}
		if err := q.store.RemoveQueueEntry(entry.ID); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

// replay executes one queued operation.
func (q *RetryQueue) replay(ctx context.Context, rs remote.Store, entry *models.SyncQueueEntry) error {
	switch entry.Operation {
	case models.QueueOpInsert, models.QueueOpUpdate:
		meta, err := q.store.GetSyncMeta(entry.EntityType, entry.EntityID)
		if err != nil {
			// The record was deleted locally; its delete entry carries
			// the remote cleanup.
			return nil
		}

		doc := entry.Doc()
		if doc == nil {
			// The payload never parsed; retrying cannot fix it. The
			// record itself is still pushed by the next reconciliation.
			logging.Error("dropping queue entry with unreadable payload", nil, map[string]interface{}{
				"entity_type": entry.EntityType,
				"entity_id":   entry.EntityID,
				"entry_id":    entry.ID,
			})
			return nil
		}
		models.StampOrigin(doc)
		if meta.RemoteID == "" {
			// First time this record reaches the remote store; stitch
			// the assigned id onto the row. If the record was edited
			// after this entry was captured it keeps its offline state,
			// and the next reconciliation pushes the newer fields.
			remoteID, err := rs.Insert(ctx, entry.EntityType, doc)
			if err != nil {
				return err
			}
			_, err = q.store.MarkSynced(entry.EntityType, entry.EntityID, remoteID, models.LastModifiedOf(doc))
			return err
		}

		if err := rs.Update(ctx, entry.EntityType, meta.RemoteID, doc); err != nil {
			return err
		}
		_, err = q.store.MarkSynced(entry.EntityType, entry.EntityID, meta.RemoteID, models.LastModifiedOf(doc))
		return err

	case models.QueueOpDelete:
		if entry.RemoteID == "" {
			// The record was never mirrored; nothing to remove.
			return nil
		}
		return rs.Delete(ctx, entry.EntityType, entry.RemoteID)

	default:
		// Unknown operations are dropped rather than retried forever.
		logging.Error("unknown queued operation", nil, map[string]interface{}{
			"operation": entry.Operation,
			"entry_id":  entry.ID,
		})
		return nil
	}
}

// Stats reports queue depth by status.
func (q *RetryQueue) Stats() (map[string]int, error) {
	return q.store.QueueStats()
}

// RetryFailed resets poison entries for another round of attempts.
func (q *RetryQueue) RetryFailed() (int64, error) {
	return q.store.RequeueFailed()
}
