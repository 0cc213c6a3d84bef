package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/virtlab-edu/virtlab/internal/attempt"
	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/db"
)

// writeError maps the engine's taxonomy 1:1 to status codes. Anything
// unrecognized is a 500 with a generic body; internals never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotVisible), errors.Is(err, content.ErrNotFound):
		httpError(w, "not found", http.StatusNotFound)
	case errors.Is(err, content.ErrContentNotActive):
		httpError(w, "content not active", http.StatusConflict)
	case errors.Is(err, attempt.ErrAttemptLimitExceeded):
		httpError(w, "attempt limit exceeded", http.StatusConflict)
	case errors.Is(err, attempt.ErrAttemptNotFound):
		httpError(w, "attempt not found", http.StatusNotFound)
	case errors.Is(err, attempt.ErrInvalidAnswerShape):
		httpError(w, "invalid answer shape", http.StatusBadRequest)
	case errors.Is(err, db.ErrUnavailable):
		// Safe to retry: no step commits partial state.
		httpError(w, "temporarily unavailable", http.StatusServiceUnavailable)
	default:
		httpError(w, "internal error", http.StatusInternalServerError)
	}
}

func httpError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
