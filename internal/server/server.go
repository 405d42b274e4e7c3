package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dukerupert/saveward/internal/archive"
	"github.com/dukerupert/saveward/internal/gamesrv"
	"github.com/dukerupert/saveward/internal/handler"
	"github.com/dukerupert/saveward/internal/middleware"
	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/offsite"
	"github.com/dukerupert/saveward/internal/restore"
	"github.com/dukerupert/saveward/internal/scheduler"
	"github.com/dukerupert/saveward/internal/store"
	ws "github.com/dukerupert/saveward/internal/websocket"
)

// Config holds everything the server needs from the environment.
type Config struct {
	SaveDir   string
	BackupDir string
	Offsite   offsite.Config
}

// Server wires the backup engine to its HTTP surface.
type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	scheduler    *scheduler.Scheduler
	orchestrator *restore.Orchestrator
	archiveH     *handler.ArchiveHandler
	restoreH     *handler.RestoreHandler
	settingsH    *handler.SettingsHandler
	healthH      *handler.HealthHandler
	serverH      *handler.ServerControlHandler
	logger       *slog.Logger
}

// New builds the full engine: stores, archive store, verifier,
// scheduler, restore orchestrator, gateway, offsite replicator, and
// the handlers over them.
func New(db *sql.DB, cfg Config, gateway gamesrv.Gateway, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))

	archives, err := archive.NewStore(cfg.BackupDir)
	if err != nil {
		return nil, err
	}
	verifier := archive.NewVerifier(archives)

	settingsStore := store.NewSettingsStore(db)
	runStore := store.NewRunStore(db)

	replicator := offsite.NewReplicator(cfg.Offsite, logger.With("component", "offsite"))

	// One lock serializes everything that touches the save directory:
	// scheduled creates, manual triggers, and restores.
	saveMu := &sync.Mutex{}

	sched := scheduler.New(cfg.SaveDir, saveMu, archives, verifier, settingsStore, runStore, replicator,
		func(h model.HealthState) {
			hub.Broadcast(ws.EventHealth, h)
		}, logger.With("component", "scheduler"))

	orch := restore.New(cfg.SaveDir, saveMu, archives, settingsStore, gateway, logger.With("component", "restore"))

	return &Server{
		db:           db,
		hub:          hub,
		scheduler:    sched,
		orchestrator: orch,
		archiveH:     handler.NewArchiveHandler(archives, verifier, sched, hub, logger.With("component", "archive")),
		restoreH:     handler.NewRestoreHandler(orch, hub, logger.With("component", "restore_handler")),
		settingsH:    handler.NewSettingsHandler(settingsStore, sched, hub, logger.With("component", "settings")),
		healthH:      handler.NewHealthHandler(sched, runStore, logger.With("component", "health")),
		serverH:      handler.NewServerControlHandler(gateway, logger.With("component", "server_control")),
		logger:       logger,
	}, nil
}

// StartScheduler begins the background backup loop.
func (s *Server) StartScheduler(ctx context.Context) {
	s.scheduler.Start(ctx)
}

// StopScheduler halts the loop, letting an in-progress iteration finish.
func (s *Server) StopScheduler() {
	s.scheduler.Stop()
}

// Router returns the HTTP handler with all routes registered.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.livenessHandler)

	mux.HandleFunc("GET /api/archives", s.archiveH.List)
	mux.HandleFunc("POST /api/archives", s.archiveH.Trigger)
	mux.HandleFunc("DELETE /api/archives/{name}", s.archiveH.Delete)
	mux.HandleFunc("POST /api/archives/{name}/verify", s.archiveH.Verify)
	mux.HandleFunc("PUT /api/archives/{name}/metadata", s.archiveH.UpdateMetadata)
	mux.HandleFunc("POST /api/archives/{name}/restore", s.restoreH.Restore)

	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	mux.HandleFunc("GET /api/backup/health", s.healthH.Health)
	mux.HandleFunc("GET /api/backup/runs", s.healthH.Runs)

	mux.HandleFunc("GET /api/server", s.serverH.Status)
	mux.HandleFunc("POST /api/server/start", s.serverH.Start)
	mux.HandleFunc("POST /api/server/stop", s.serverH.Stop)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
