package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/saveward/internal/scheduler"
	"github.com/dukerupert/saveward/internal/store"
)

const defaultRunLimit = 50

type HealthHandler struct {
	scheduler *scheduler.Scheduler
	runs      *store.RunStore
	logger    *slog.Logger
}

func NewHealthHandler(sched *scheduler.Scheduler, runs *store.RunStore, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{scheduler: sched, runs: runs, logger: logger}
}

// Health returns the scheduler's current health state.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Health())
}

// Runs returns recent backup run history, newest first.
func (h *HealthHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.runs.List(limit)
	if err != nil {
		h.logger.Error("list runs", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
