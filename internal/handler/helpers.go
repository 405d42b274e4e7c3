package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/saveward/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's error taxonomy onto HTTP status codes.
// Callers get a classified kind and a human-readable message, never a
// stack trace.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound     *model.NotFoundError
		validation   *model.ValidationError
		precondition *model.PreconditionError
		partial      *model.PartialFailureError
	)

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"kind":  "not_found",
			"error": notFound.Error(),
		})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"kind":   "validation",
			"error":  validation.Error(),
			"fields": validation.Fields,
		})
	case errors.As(err, &precondition):
		writeJSON(w, http.StatusConflict, map[string]any{
			"kind":  "precondition",
			"error": precondition.Error(),
		})
	case errors.As(err, &partial):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"kind":  "partial_failure",
			"error": partial.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"kind":  "storage",
			"error": err.Error(),
		})
	}
}
