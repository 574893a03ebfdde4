package httpx

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/unlockr/unlockr/internal/metrics"
)

// handleDownload implements GET /download/{session_id}. The session entry is
// consumed by the underlying Take before the first response byte is written;
// a torn connection afterwards loses the artifacts (at-most-once delivery).
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	const prefix = "/download/"
	if len(r.URL.Path) <= len(prefix) || r.URL.Path[:len(prefix)] != prefix {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	id := r.URL.Path[len(prefix):]
	d, err := h.Service.Deliver(r.Context(), id)
	if err != nil {
		h.mapServiceError(w, r, err)
		return
	}
	h.inc(metrics.CounterSessionsDelivered, 1)
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}
