package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
	"github.com/unlockr/unlockr/internal/metrics"
)

// multipartMemory caps the in-memory portion of multipart parsing; larger
// parts spill to temp files which we still read fully per item.
const multipartMemory = 32 << 20

type unlockResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

type unlockResponse struct {
	SessionID    string         `json:"session_id"`
	Results      []unlockResult `json:"results"`
	SuccessCount int            `json:"success_count"`
	TotalCount   int            `json:"total_count"`
}

// handleUnlock implements POST /unlock: multipart form with a `password`
// field (may be empty) and one or more `files` attachments.
func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.MaxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed multipart payload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	password := r.FormValue("password")
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.mapServiceError(w, r, domain.ErrNoFiles)
		return
	}

	items := make([]app.UploadItem, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "malformed multipart payload")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "malformed multipart payload")
			return
		}
		items = append(items, app.UploadItem{Name: fh.Filename, Data: data})
	}

	res, err := h.Service.ProcessBatch(r.Context(), items, password)
	if err != nil {
		h.mapServiceError(w, r, err)
		return
	}

	sessionID := ""
	if len(res.Artifacts) > 0 {
		id, putErr := h.Sessions.Put(r.Context(), res.Artifacts)
		if putErr != nil {
			cid, _ := GetCorrelationID(r.Context())
			slog.Error("session put failed", "cid", cid)
			h.writeError(w, http.StatusInternalServerError, "internal")
			return
		}
		sessionID = id.String()
		h.inc(metrics.CounterSessionsCreated, 1)
	}
	h.recordBatch(res)

	results := make([]unlockResult, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		results = append(results, unlockResult{
			Filename: o.SourceName,
			Success:  o.Success,
			Output:   o.ArtifactName,
			Error:    outcomeMessage(o.Err),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(unlockResponse{
		SessionID:    sessionID,
		Results:      results,
		SuccessCount: res.SuccessCount(),
		TotalCount:   len(res.Outcomes),
	})
}

// recordBatch emits per-batch counters.
func (h *Handler) recordBatch(res *app.BatchResult) {
	h.inc(metrics.CounterBatchesTotal, 1)
	h.observe(metrics.SummaryBatchSize, int64(len(res.Outcomes)))
	success := int64(res.SuccessCount())
	h.inc(metrics.CounterFilesUnlocked, success)
	h.inc(metrics.CounterFilesFailed, int64(len(res.Outcomes))-success)
	var wrong int64
	for _, o := range res.Outcomes {
		if errors.Is(o.Err, domain.ErrWrongPassword) {
			wrong++
		}
	}
	h.inc(metrics.CounterWrongPassword, wrong)
}
