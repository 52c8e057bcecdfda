package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

// MemoryStore is an in-memory Store used in tests and when running
// without a configured remote. It can be flipped offline to exercise
// failure paths.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]map[string]models.Document
	nextID  int
	offline bool

	Inserts int
	Updates int
	Deletes int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]models.Document)}
}

// SetOffline flips the store's availability.
func (s *MemoryStore) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *MemoryStore) check() error {
	if s.offline {
		return errors.New(errors.ErrRemoteUnavailable, "remote store is offline")
	}
	return nil
}

func clone(doc models.Document) models.Document {
	out := make(models.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// Insert stores a new document and returns its assigned id.
func (s *MemoryStore) Insert(_ context.Context, collection string, doc models.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return "", err
	}

	s.nextID++
	id := fmt.Sprintf("%024x", s.nextID)
	stored := clone(doc)
	stored["_id"] = id

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]models.Document)
	}
	s.data[collection][id] = stored
	s.Inserts++
	return id, nil
}

// Update replaces the document with the given remote id, creating it when
// absent.
func (s *MemoryStore) Update(_ context.Context, collection, remoteID string, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}

	stored := clone(doc)
	stored["_id"] = remoteID
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]models.Document)
	}
	s.data[collection][remoteID] = stored
	s.Updates++
	return nil
}

// Delete removes the document with the given remote id.
func (s *MemoryStore) Delete(_ context.Context, collection, remoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	delete(s.data[collection], remoteID)
	s.Deletes++
	return nil
}

// FetchAll returns every document in the collection.
func (s *MemoryStore) FetchAll(_ context.Context, collection string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	var out []models.Document
	for _, doc := range s.data[collection] {
		out = append(out, clone(doc))
	}
	return out, nil
}

// Get returns one document, for test assertions.
func (s *MemoryStore) Get(collection, remoteID string) (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.data[collection][remoteID]
	if !ok {
		return nil, false
	}
	return clone(doc), true
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[collection])
}

// Ping verifies availability.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check()
}

// Close is a no-op.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}
