package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "no files", err: domain.ErrNoFiles, wantStatus: http.StatusBadRequest, wantMsg: "no files supplied"},
		{name: "not found", err: app.ErrNotFound, wantStatus: http.StatusNotFound, wantMsg: "session expired or invalid"},
		{name: "invalid id", err: domain.ErrInvalidID, wantStatus: http.StatusNotFound, wantMsg: "session expired or invalid"},
		{name: "wrapped not found", err: fmt.Errorf("deliver: %w", app.ErrNotFound), wantStatus: http.StatusNotFound, wantMsg: "session expired or invalid"},
		{name: "unknown", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantMsg: "internal"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h := &Handler{}
			rr := httptest.NewRecorder()
			h.mapServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status %d, want %d", rr.Code, tc.wantStatus)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tc.wantMsg {
				t.Fatalf("message %q, want %q", body.Error, tc.wantMsg)
			}
		})
	}
}

func TestOutcomeMessage(t *testing.T) {
	if got := outcomeMessage(domain.ErrWrongPassword); got != "Wrong password" {
		t.Fatalf("wrong password message %q", got)
	}
	if got := outcomeMessage(domain.ErrNotPDF); got != "Not a PDF file" {
		t.Fatalf("not pdf message %q", got)
	}
	wrapped := fmt.Errorf("%w: xref broken", domain.ErrCorrupted)
	if got := outcomeMessage(wrapped); got != wrapped.Error() {
		t.Fatalf("corrupted message %q", got)
	}
	if got := outcomeMessage(nil); got != "" {
		t.Fatalf("nil error message %q", got)
	}
}
