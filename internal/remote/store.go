// Package remote provides access to the cloud mirror of the local store.
// All calls take a context and carry their own timeouts; callers never
// block the user-facing path on the remote store.
package remote

import (
	"context"

	"github.com/skywaveads/erp-core/internal/models"
)

// Store defines the operations the sync layer needs from the remote
// database. Documents are schemaless maps; "_id" carries the remote
// identifier as a hex string.
type Store interface {
	// Insert stores a new document in the named collection and returns
	// the remote id assigned to it.
	Insert(ctx context.Context, collection string, doc models.Document) (string, error)

	// Update replaces the document with the given remote id.
	Update(ctx context.Context, collection, remoteID string, doc models.Document) error

	// Delete removes the document with the given remote id. Deleting a
	// document that is already gone is not an error.
	Delete(ctx context.Context, collection, remoteID string) error

	// FetchAll returns every document in the collection.
	FetchAll(ctx context.Context, collection string) ([]models.Document, error)

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close(ctx context.Context) error
}
