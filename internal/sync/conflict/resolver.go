// Package conflict decides which side wins when reconciliation finds a
// record changed in both stores. Conflicts are resolved silently; the
// outcome is logged, never surfaced to the user path.
package conflict

import (
	"github.com/skywaveads/erp-core/internal/logging"
	"github.com/skywaveads/erp-core/internal/models"
)

// Outcome is a resolution decision.
type Outcome int

const (
	// KeepLocal leaves the local record untouched; the push side will
	// overwrite the remote copy.
	KeepLocal Outcome = iota
	// ApplyRemote overwrites the local record with the remote document,
	// keeping fields this installation owns.
	ApplyRemote
	// NoChange means both sides already agree.
	NoChange
)

// Resolver applies last-write-wins with one exception: a record awaiting
// a local deletion is never overwritten by a pull, because the deletion
// still has to reach the remote store.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve decides the outcome for one record seen on both sides.
func (r *Resolver) Resolve(table string, local models.SyncMeta, remoteModified int64) Outcome {
	if local.SyncStatus == models.SyncStatusDeletedPending {
		return KeepLocal
	}

	switch {
	case remoteModified > local.LastModified:
		if local.SyncStatus.IsPending() {
			logging.Info("conflict resolved in favor of newer remote document", map[string]interface{}{
				"entity_type":     table,
				"local_id":        local.LocalID,
				"local_modified":  local.LastModified,
				"remote_modified": remoteModified,
			})
		}
		return ApplyRemote
	case remoteModified < local.LastModified:
		if local.SyncStatus.IsPending() {
			// The local edit is newer; the push side uploads it.
			return KeepLocal
		}
		// A synced record should not be newer than its remote copy;
		// treat the remote document as stale and keep the local row.
		logging.Warn("remote document older than synced local record", map[string]interface{}{
			"entity_type":     table,
			"local_id":        local.LocalID,
			"local_modified":  local.LastModified,
			"remote_modified": remoteModified,
		})
		return KeepLocal
	default:
		if local.SyncStatus.IsPending() {
			// Same timestamp on both sides; keep the local edit and let
			// the push re-assert it.
			return KeepLocal
		}
		return NoChange
	}
}
