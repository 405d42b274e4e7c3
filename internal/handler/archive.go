package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/saveward/internal/archive"
	"github.com/dukerupert/saveward/internal/model"
	"github.com/dukerupert/saveward/internal/scheduler"
	"github.com/dukerupert/saveward/internal/websocket"
)

type ArchiveHandler struct {
	archives  *archive.Store
	verifier  *archive.Verifier
	scheduler *scheduler.Scheduler
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewArchiveHandler(archives *archive.Store, verifier *archive.Verifier, sched *scheduler.Scheduler, hub *websocket.Hub, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{archives: archives, verifier: verifier, scheduler: sched, hub: hub, logger: logger}
}

func (h *ArchiveHandler) broadcast(eventType string, data any) {
	if h.hub != nil {
		h.hub.Broadcast(eventType, data)
	}
}

// List returns all archives, newest first.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.archives.List()
	if err != nil {
		h.logger.Error("list archives", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type triggerRequest struct {
	Notes string   `json:"notes"`
	Tags  []string `json:"tags"`
}

// Trigger runs the create-verify-prune pipeline synchronously and
// returns the refreshed archive list. Optional notes/tags are attached
// to the new archive.
func (h *ArchiveHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	}

	var meta model.ArchiveMetadata
	if req.Notes != "" || len(req.Tags) > 0 {
		var err error
		meta, err = archive.NormalizeMetadata(req.Notes, req.Tags)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	record, err := h.scheduler.RunOnce(r.Context(), model.RunKindManual)
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		writeError(w, err)
		return
	}

	if !meta.Empty() {
		if err := h.archives.SaveMetadata(record.Name, meta); err != nil {
			h.logger.Error("save trigger metadata", "archive", record.Name, "error", err)
		}
	}

	h.broadcast(websocket.EventArchivesChanged, nil)

	records, err := h.archives.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

// Delete removes an archive and its sidecars.
func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.archives.Delete(name); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(websocket.EventArchivesChanged, nil)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// Verify re-checks an archive's integrity on demand.
func (h *ArchiveHandler) Verify(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	result, err := h.verifier.Verify(name)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(websocket.EventArchivesChanged, nil)
	writeJSON(w, http.StatusOK, result)
}

type metadataRequest struct {
	Notes string   `json:"notes"`
	Tags  []string `json:"tags"`
}

// UpdateMetadata replaces an archive's notes and tags. Empty input
// removes the metadata sidecar.
func (h *ArchiveHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req metadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	meta, err := archive.NormalizeMetadata(req.Notes, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.archives.SaveMetadata(name, meta); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast(websocket.EventArchivesChanged, nil)
	writeJSON(w, http.StatusOK, meta)
}
