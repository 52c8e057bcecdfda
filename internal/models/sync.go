// Package models provides data model definitions for the repository engine.
package models

import "time"

// SyncStatus describes where a record stands relative to the remote store.
type SyncStatus string

const (
	// SyncStatusNewOffline marks a record created locally that never
	// reached the remote store.
	SyncStatusNewOffline SyncStatus = "new_offline"

	// SyncStatusModifiedOffline marks a previously synced record changed
	// locally before the change propagated.
	SyncStatusModifiedOffline SyncStatus = "modified_offline"

	// SyncStatusSynced marks local and remote agreement as of the last
	// successful background write.
	SyncStatusSynced SyncStatus = "synced"

	// SyncStatusDeletedPending marks a record deleted locally whose remote
	// deletion is not yet confirmed.
	SyncStatusDeletedPending SyncStatus = "deleted_pending"
)

// CanTransition reports whether the edge from -> to is allowed by the
// per-record state machine. Background remote failures never transition
// state backward, so no edge leads out of synced except a local mutation.
func CanTransition(from, to SyncStatus) bool {
	switch from {
	case SyncStatusNewOffline:
		return to == SyncStatusSynced || to == SyncStatusDeletedPending
	case SyncStatusModifiedOffline:
		return to == SyncStatusSynced || to == SyncStatusDeletedPending
	case SyncStatusSynced:
		return to == SyncStatusModifiedOffline || to == SyncStatusDeletedPending
	case SyncStatusDeletedPending:
		return false
	}
	return false
}

// IsPending reports whether the status requires a remote operation.
func (s SyncStatus) IsPending() bool {
	return s == SyncStatusNewOffline || s == SyncStatusModifiedOffline || s == SyncStatusDeletedPending
}

// SyncMeta is the per-record sync bookkeeping embedded in every entity.
// LocalID is the process-wide identity; RemoteID is assigned exactly once,
// on the transition into synced (stitching), and never reassigned.
type SyncMeta struct {
	LocalID      int64      `db:"id" json:"id"`
	RemoteID     string     `db:"remote_id" json:"remote_id,omitempty"`
	SyncStatus   SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt    int64      `db:"created_at" json:"created_at"`
	LastModified int64      `db:"last_modified" json:"last_modified"`
}

// Meta exposes the embedded bookkeeping to code generic over entity
// types.
func (m *SyncMeta) Meta() *SyncMeta {
	return m
}

// MarkCreated stamps a fresh local record.
func (m *SyncMeta) MarkCreated() {
	now := time.Now().Unix()
	m.CreatedAt = now
	m.LastModified = now
	m.SyncStatus = SyncStatusNewOffline
}

// MarkLocalUpdate stamps a local mutation. A record that never synced stays
// new_offline; a synced record becomes modified_offline.
func (m *SyncMeta) MarkLocalUpdate() {
	m.LastModified = time.Now().Unix()
	if m.SyncStatus == SyncStatusSynced {
		m.SyncStatus = SyncStatusModifiedOffline
	}
}

// CreatedAtTime returns CreatedAt as time.Time.
func (m *SyncMeta) CreatedAtTime() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// LastModifiedTime returns LastModified as time.Time.
func (m *SyncMeta) LastModifiedTime() time.Time {
	return time.Unix(m.LastModified, 0)
}

// Record status values shared by entities that support archival.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)
