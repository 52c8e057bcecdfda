package models

import "encoding/json"

// Queue operation kinds.
const (
	QueueOpInsert = "insert"
	QueueOpUpdate = "update"
	QueueOpDelete = "delete"
)

// Queue entry statuses. A failed entry is poison: it exceeded max_retries
// and requires manual intervention.
const (
	QueueStatusPending = "pending"
	QueueStatusFailed  = "failed"
)

// DefaultMaxRetries is the retry budget for a queue entry before it is
// marked failed.
const DefaultMaxRetries = 3

// SyncQueueEntry is a durable pending remote operation.
type SyncQueueEntry struct {
	ID           int64           `db:"id" json:"id"`
	EntityType   string          `db:"entity_type" json:"entity_type"`
	EntityID     int64           `db:"entity_id" json:"entity_id"`
	RemoteID     string          `db:"remote_id" json:"remote_id,omitempty"`
	Operation    string          `db:"operation" json:"operation"`
	Payload      json.RawMessage `db:"payload" json:"payload,omitempty"`
	Status       string          `db:"status" json:"status"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	MaxRetries   int             `db:"max_retries" json:"max_retries"`
	NextRetryAt  int64           `db:"next_retry_at" json:"next_retry_at"`
	LastAttempt  int64           `db:"last_attempt" json:"last_attempt,omitempty"`
	ErrorMessage string          `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    int64           `db:"created_at" json:"created_at"`
}

// TableName returns the table name for SyncQueueEntry.
func (SyncQueueEntry) TableName() string {
	return "sync_queue"
}

// Doc deserializes the payload document, or nil when the entry carries
// none (deletes).
func (e *SyncQueueEntry) Doc() Document {
	if len(e.Payload) == 0 {
		return nil
	}
	var doc Document
	if err := json.Unmarshal(e.Payload, &doc); err != nil {
		return nil
	}
	return doc
}
