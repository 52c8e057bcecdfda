// Package scheduler runs reconciliation in the background: a full pass
// on a long interval while online, and a faster queue drain so records
// written offline reach the remote store soon after the connection
// returns.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/skywaveads/erp-core/internal/logging"
	syncpkg "github.com/skywaveads/erp-core/internal/sync"
)

// Config holds scheduler intervals.
type Config struct {
	// ReconcileInterval is how often a full reconciliation runs.
	ReconcileInterval time.Duration
	// DrainInterval is how often the retry queue is drained between
	// full passes.
	DrainInterval time.Duration
}

// DefaultConfig returns the default intervals.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval: 15 * time.Minute,
		DrainInterval:     time.Minute,
	}
}

// Scheduler drives the reconciler on timers and on demand.
type Scheduler struct {
	reconciler *syncpkg.Reconciler
	cfg        Config

	trigger chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler. Zero intervals use the defaults.
func New(reconciler *syncpkg.Reconciler, cfg Config) *Scheduler {
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultConfig().ReconcileInterval
	}
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = DefaultConfig().DrainInterval
	}
	return &Scheduler{
		reconciler: reconciler,
		cfg:        cfg,
		trigger:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

// Start launches the background loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)
	logging.Info("sync scheduler started", map[string]interface{}{
		"reconcile_interval": s.cfg.ReconcileInterval.String(),
		"drain_interval":     s.cfg.DrainInterval.String(),
	})
}

// Stop shuts the loop down and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	logging.Info("sync scheduler stopped")
}

// TriggerNow requests an immediate reconciliation pass. Non-blocking; a
// pass already requested absorbs the trigger.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	reconcile := time.NewTicker(s.cfg.ReconcileInterval)
	defer reconcile.Stop()
	drain := time.NewTicker(s.cfg.DrainInterval)
	defer drain.Stop()

	// First pass shortly after startup, once the connection probe has
	// had a chance to finish.
	startup := time.NewTimer(10 * time.Second)
	defer startup.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-startup.C:
			s.run(ctx)
		case <-reconcile.C:
			s.run(ctx)
		case <-s.trigger:
			s.run(ctx)
		case <-drain.C:
			if err := s.reconciler.DrainQueue(ctx); err != nil {
				logging.Error("queue drain failed", err)
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.reconciler.Run(ctx); err != nil {
		logging.Error("reconciliation pass failed", err)
	}
}
