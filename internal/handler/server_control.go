package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/saveward/internal/gamesrv"
)

type ServerControlHandler struct {
	gateway gamesrv.Gateway
	logger  *slog.Logger
}

func NewServerControlHandler(gateway gamesrv.Gateway, logger *slog.Logger) *ServerControlHandler {
	return &ServerControlHandler{gateway: gateway, logger: logger}
}

// Status reports the game server container's state.
func (h *ServerControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.gateway.Status(r.Context())
	if err != nil {
		h.logger.Error("server status", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Start starts the game server container.
func (h *ServerControlHandler) Start(w http.ResponseWriter, r *http.Request) {
	status, err := h.gateway.Start(r.Context())
	if err != nil {
		h.logger.Error("server start", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Stop stops the game server container.
func (h *ServerControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	status, err := h.gateway.Stop(r.Context())
	if err != nil {
		h.logger.Error("server stop", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
