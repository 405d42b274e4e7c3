package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/restore"
	"github.com/dukerupert/saveward/internal/websocket"
)

type RestoreHandler struct {
	orchestrator *restore.Orchestrator
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewRestoreHandler(orch *restore.Orchestrator, hub *websocket.Hub, logger *slog.Logger) *RestoreHandler {
	return &RestoreHandler{orchestrator: orch, hub: hub, logger: logger}
}

// Restore runs a restore synchronously. Progress events stream to web
// clients over the websocket hub while the request blocks; the response
// carries the terminal result. Precondition failures (server running,
// restore already in flight, unknown archive) reject before anything is
// touched.
func (h *RestoreHandler) Restore(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var safetyName string
	sink := func(p model.RestoreProgress) {
		if p.SafetyBackupName != "" {
			safetyName = p.SafetyBackupName
		}
		if h.hub != nil {
			h.hub.Broadcast(websocket.EventRestoreProgress, p)
		}
	}

	// Once the delete phase starts the orchestrator runs to completion
	// regardless of the request context, so a dropped connection cannot
	// leave the save directory half-restored.
	if err := h.orchestrator.Restore(r.Context(), name, sink); err != nil {
		h.logger.Error("restore", "archive", name, "error", err)
		writeError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.EventArchivesChanged, nil)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":             "complete",
		"archive":            name,
		"safety_backup_name": safetyName,
	})
}
