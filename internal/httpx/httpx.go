// Package httpx contains the HTTP delivery layer (net/http handlers) for the
// unlockr service. It maps HTTP requests to the application service while
// enforcing upload limits, security headers, streaming semantics, and error
// translation. Handlers are split across files (unlock.go, download.go,
// health.go, errors.go).
package httpx

import (
	"context"
	"net/http"

	"github.com/unlockr/unlockr/internal/app"
)

// ServicePort abstracts the subset of app.Service used by the HTTP layer.
// It is satisfied by *app.Service in production and mocked in tests.
type ServicePort interface {
	ProcessBatch(ctx context.Context, items []app.UploadItem, password string) (*app.BatchResult, error)
	Deliver(ctx context.Context, idStr string) (*app.Delivery, error)
}

// Recorder is the subset of the metrics manager the handlers use. A nil
// Recorder disables metric emission.
type Recorder interface {
	Inc(name string, delta int64)
	Observe(name string, value int64)
}

// Handler wires HTTP endpoints to the application service. Artifacts from a
// successful batch are handed to Sessions here; the batch processor itself
// never touches the store.
// It is safe for concurrent use. Zero-value is not valid; construct via New.
type Handler struct {
	Service   ServicePort
	Sessions  app.SessionStore
	MaxBody   int64                       // request body cap for uploads (0 disables)
	Readiness func(context.Context) error // optional readiness probe
	Metrics   Recorder                    // optional counter sink
	Stats     http.HandlerFunc            // optional metrics snapshot endpoint
}

// New returns a configured Handler.
// svc: application service port implementation.
// sessions: store receiving artifacts from successful batches.
// maxBody: maximum allowed request body size (0 disables extra check).
func New(svc ServicePort, sessions app.SessionStore, maxBody int64) *Handler {
	return &Handler{Service: svc, Sessions: sessions, MaxBody: maxBody}
}

// Router constructs and returns an http.Handler with all routes mounted and
// correlation-ID plus security headers middleware applied.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/unlock", h.handleUnlock)
	mux.HandleFunc("/download/", h.handleDownload) // expect /download/{session_id}
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/readyz", h.handleReady)
	if h.Stats != nil {
		mux.Handle("/stats", h.Stats)
	}
	return h.secureHeaders(CorrelationIDMiddleware(mux))
}

// secureHeaders middleware adds standard security & cache control headers.
// Responses carry one-shot download tokens, so caching is always off.
func (h *Handler) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; connect-src 'self'; frame-ancestors 'none'; base-uri 'none'")
		next.ServeHTTP(w, r)
	})
}

// inc emits a counter if a Recorder is configured.
func (h *Handler) inc(name string, delta int64) {
	if h.Metrics != nil {
		h.Metrics.Inc(name, delta)
	}
}

// observe emits a summary observation if a Recorder is configured.
func (h *Handler) observe(name string, value int64) {
	if h.Metrics != nil {
		h.Metrics.Observe(name, value)
	}
}
