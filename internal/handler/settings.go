package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/scheduler"
	"github.com/dukerupert/saveward/internal/store"
	"github.com/dukerupert/saveward/internal/websocket"
)

type SettingsHandler struct {
	settings  *store.SettingsStore
	scheduler *scheduler.Scheduler
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, sched *scheduler.Scheduler, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, scheduler: sched, hub: hub, logger: logger}
}

// Get returns the current backup settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Load())
}

// Update validates and persists new settings, then immediately re-runs
// pruning with the new retention count. The scheduler picks up the new
// interval on its next tick without a restart.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.BackupSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := store.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.settings.Save(req); err != nil {
		h.logger.Error("save settings", "error", err)
		writeError(w, err)
		return
	}

	if err := h.scheduler.Prune(r.Context(), req.MaxArchivesToKeep); err != nil {
		h.logger.Error("prune after settings update", "error", err)
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.EventSettingsChanged, req)
	}
	writeJSON(w, http.StatusOK, h.settings.Load())
}
