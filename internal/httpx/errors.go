package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

// writeError writes a JSON error body with given status code.
func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg})
}

// mapServiceError maps domain/store/service errors to HTTP responses.
// Structural errors only; per-item outcomes are encoded as response data and
// never reach this point.
func (h *Handler) mapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	cid, _ := GetCorrelationID(r.Context())
	switch {
	case errors.Is(err, domain.ErrNoFiles):
		slog.Warn("service error", "cid", cid, "code", "no_files")
		h.writeError(w, http.StatusBadRequest, "no files supplied")
	case errors.Is(err, app.ErrNotFound), errors.Is(err, domain.ErrInvalidID):
		slog.Info("service error", "cid", cid, "code", "session_not_found")
		h.writeError(w, http.StatusNotFound, "session expired or invalid")
	default:
		// Internal / unexpected: do not log raw error string to avoid leaking tokens or filenames.
		slog.Error("unhandled service error", "cid", cid, "code", "unhandled")
		h.writeError(w, http.StatusInternalServerError, "internal")
	}
}

// outcomeMessage renders a per-item failure for the response body. Wrapped
// corrupted errors keep the codec's message for diagnostics.
func outcomeMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrWrongPassword):
		return "Wrong password"
	case errors.Is(err, domain.ErrNotPDF):
		return "Not a PDF file"
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}
