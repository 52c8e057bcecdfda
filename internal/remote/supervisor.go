package remote

import (
	"context"
	"sync"
	"time"

	"github.com/skywaveads/erp-core/internal/events"
	"github.com/skywaveads/erp-core/internal/logging"
)

// ConnectTimeout bounds the startup probe. The application never waits on
// it: Start returns immediately and the probe finishes in the background.
const ConnectTimeout = 5 * time.Second

// Connector establishes a remote connection.
type Connector func(ctx context.Context) (Store, error)

// Supervisor owns the remote connection state. The rest of the system
// asks it for the current store and whether the remote is reachable; a
// lost connection flips the system into offline operation without
// surfacing errors to the user path.
type Supervisor struct {
	connect Connector
	bus     *events.Bus

	mu       sync.Mutex
	store    Store
	online   bool
	probing  bool
	lastTry  time.Time
	lastErr  error
}

// NewSupervisor creates a Supervisor. The bus may be nil.
func NewSupervisor(connect Connector, bus *events.Bus) *Supervisor {
	return &Supervisor{connect: connect, bus: bus}
}

// Start launches a background connection probe and returns immediately.
// Calling it again while a probe is in flight is a no-op; calling it
// after a failure retries.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	if s.probing || s.online {
		s.mu.Unlock()
		return
	}
	s.probing = true
	s.lastTry = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	go s.probe(ctx)
}

func (s *Supervisor) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	store, err := s.connect(ctx)

	s.mu.Lock()
	s.probing = false
	s.lastErr = err
	if err != nil {
		s.online = false
		s.mu.Unlock()
		logging.Warn("remote connection unavailable, continuing offline", map[string]interface{}{
			"error": err.Error(),
		})
		s.publish("offline")
		return
	}
	s.store = store
	s.online = true
	s.mu.Unlock()

	logging.Info("remote connection established")
	s.publish("online")
}

func (s *Supervisor) publish(state string) {
	if s.bus != nil {
		s.bus.Publish(events.ConnChanged, state)
	}
}

// IsOnline reports whether the remote store is currently reachable.
func (s *Supervisor) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Store returns the connected remote store, or nil when offline.
func (s *Supervisor) Store() Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil
	}
	return s.store
}

// LastError returns the most recent probe failure.
func (s *Supervisor) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// MarkOffline records that a remote operation failed with a connection
// error. Subsequent calls route through the offline path until a probe
// succeeds again.
func (s *Supervisor) MarkOffline() {
	s.mu.Lock()
	if !s.online {
		s.mu.Unlock()
		return
	}
	s.online = false
	s.mu.Unlock()

	logging.Warn("remote connection lost, switching to offline operation")
	s.publish("offline")
}

// Close shuts down the remote connection.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	store := s.store
	s.store = nil
	s.online = false
	s.mu.Unlock()

	if store != nil {
		return store.Close(ctx)
	}
	return nil
}
