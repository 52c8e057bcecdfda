// Package main runs the offline-first repository engine as a standalone
// process: it opens the local SQLite store, starts the MongoDB mirror
// supervisor and the sync scheduler, and serves a small localhost status
// API until the process is signalled.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/device"
	"github.com/skywaveads/erp-core/internal/events"
	"github.com/skywaveads/erp-core/internal/logging"
	"github.com/skywaveads/erp-core/internal/models"
	"github.com/skywaveads/erp-core/internal/remote"
	"github.com/skywaveads/erp-core/internal/repo"
	syncpkg "github.com/skywaveads/erp-core/internal/sync"
	"github.com/skywaveads/erp-core/internal/sync/queue"
	"github.com/skywaveads/erp-core/internal/sync/scheduler"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("create data directory: %v", err)
	}

	level := logging.LevelInfo
	if os.Getenv("LOG_DEBUG") != "" {
		level = logging.LevelDebug
	}
	logging.InitFile(dataDir, level)
	logger := logging.Get()

	database, err := db.Open(dataDir)
	if err != nil {
		logger.Error("open local store", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.Error("migrate local store", err)
		os.Exit(1)
	}
	store := db.NewStore(database)

	deviceID, err := device.ID(dataDir)
	if err != nil {
		logger.Error("load device identity", err)
		os.Exit(1)
	}
	models.SetOriginDevice(deviceID)
	logger.Info("engine starting", map[string]interface{}{
		"version":   Version,
		"device_id": deviceID,
		"data_dir":  dataDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	mongoCfg := remote.MongoConfigFromEnv()
	supervisor := remote.NewSupervisor(func(ctx context.Context) (remote.Store, error) {
		return remote.ConnectMongo(ctx, mongoCfg)
	}, bus)

	retry := queue.New(store, supervisor)
	writer := syncpkg.NewWriter(store, supervisor, retry, syncpkg.DefaultWorkers)
	reconciler := syncpkg.NewReconciler(store, supervisor, retry, bus)
	sched := scheduler.New(reconciler, scheduler.DefaultConfig())

	repository := repo.New(store, cache.New(0, 0), writer, bus)

	supervisor.Start(ctx)
	sched.Start(ctx)

	srv := statusServer(repository, supervisor, reconciler, retry, sched)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("engine stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	sched.Stop()
	writer.Close()
	supervisor.Close(shutdownCtx)
}

// statusServer exposes engine health and sync state on localhost so a
// desktop shell or operator can inspect and nudge the engine.
func statusServer(repository *repo.Repository, supervisor *remote.Supervisor, reconciler *syncpkg.Reconciler, retry *queue.RetryQueue, sched *scheduler.Scheduler) *http.Server {
	port := os.Getenv("STATUS_PORT")
	if port == "" {
		port = "8090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]interface{}{"status": "ok", "version": Version})
	})
	mux.HandleFunc("/api/sync/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lastRun, lastErr := reconciler.LastRun()
		queueStats, _ := retry.Stats()
		status := map[string]interface{}{
			"online":      supervisor.IsOnline(),
			"running":     reconciler.Running(),
			"queue":       queueStats,
			"cache":       repository.CacheStats(),
			"last_run":    lastRun.Format(time.RFC3339),
			"last_error":  "",
			"remote_seen": !lastRun.IsZero(),
		}
		if lastErr != nil {
			status["last_error"] = lastErr.Error()
		}
		writeJSON(w, status)
	})
	mux.HandleFunc("/api/sync/trigger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sched.TriggerNow()
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]interface{}{"triggered": true})
	})

	return &http.Server{Addr: "127.0.0.1:" + port, Handler: mux}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
