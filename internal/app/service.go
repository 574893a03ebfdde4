// Package app contains the application orchestration layer for unlockr. It
// wires domain validation with the codec and session ports without performing
// any transport I/O itself.
package app

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/unlockr/unlockr/internal/domain"
)

// ErrNotFound indicates the session was not found, already consumed, or expired.
var ErrNotFound = errors.New("session not found")

// ArchiveName is the fixed filename used when several artifacts are
// delivered as one zip archive.
const ArchiveName = "unlocked_pdfs.zip"

// Media types for the two delivery branches.
const (
	ContentTypePDF = "application/pdf"
	ContentTypeZIP = "application/zip"
)

// Delivery is a fully materialized download: the bytes to stream plus the
// filename and media type to present them under.
type Delivery struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service orchestrates batch processing and session delivery using the
// injected codec and store. Zero-value is not valid; populate all fields.
type Service struct {
	Codec    Codec
	Sessions SessionStore
	Workers  int // per-batch codec concurrency; <1 means sequential
}

// ProcessBatch applies the single batch-wide password to every named item
// and returns one outcome per item, in input order, plus the artifacts for
// the successful subset. Items with empty names are skipped as empty form
// slots. It fails only when nothing usable was submitted; per-item codec
// failures are captured as data and never abort the batch. The session store
// is never touched here — handing artifacts off is the caller's decision.
func (s *Service) ProcessBatch(ctx context.Context, items []UploadItem, password string) (*BatchResult, error) {
	named := make([]UploadItem, 0, len(items))
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		named = append(named, it)
	}
	if len(named) == 0 {
		return nil, domain.ErrNoFiles
	}

	// Indexed slots keep outcome order equal to input order even when the
	// codec calls complete out of order.
	outcomes := make([]Outcome, len(named))
	produced := make([]*Artifact, len(named))

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(named) {
		workers = len(named)
	}

	var wg sync.WaitGroup
	idxCh := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				outcomes[i], produced[i] = s.processItem(ctx, named[i], password)
			}
		}()
	}
	for i := range named {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	res := &BatchResult{Outcomes: outcomes}
	for _, a := range produced {
		if a != nil {
			res.Artifacts = append(res.Artifacts, *a)
		}
	}
	return res, nil
}

// processItem runs the per-item pipeline: extension gate, then codec.
func (s *Service) processItem(ctx context.Context, item UploadItem, password string) (Outcome, *Artifact) {
	if !domain.IsPDFName(item.Name) {
		return Outcome{SourceName: item.Name, Err: domain.ErrNotPDF}, nil
	}
	data, err := s.Codec.Unlock(ctx, item.Data, password)
	if err != nil {
		return Outcome{SourceName: item.Name, Err: err}, nil
	}
	name := domain.ArtifactName(item.Name)
	out := Outcome{SourceName: item.Name, Success: true, ArtifactName: name}
	return out, &Artifact{Name: name, Data: data}
}

// Deliver exchanges a session token for its artifacts, formatted as either a
// single PDF or a zip archive. The store entry is gone after the Take
// regardless of what happens to the response stream (at-most-once delivery).
func (s *Service) Deliver(ctx context.Context, idStr string) (*Delivery, error) {
	id, err := domain.ParseID(idStr)
	if err != nil {
		// A token that could never have been issued is indistinguishable
		// from a consumed one to the client.
		return nil, ErrNotFound
	}
	artifacts, err := s.Sessions.Take(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 1 {
		a := artifacts[0]
		return &Delivery{Filename: a.Name, ContentType: ContentTypePDF, Data: a.Data}, nil
	}
	data, err := buildArchive(artifacts)
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}
	return &Delivery{Filename: ArchiveName, ContentType: ContentTypeZIP, Data: data}, nil
}

// buildArchive writes each artifact under its own name into a deflate
// compressed zip. Duplicate names are written as duplicate entries; the
// store does not deduplicate colliding stems.
func buildArchive(artifacts []Artifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, a := range artifacts {
		w, err := zw.Create(a.Name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
