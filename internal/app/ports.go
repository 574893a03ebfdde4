// Package app defines the application layer "ports" (interfaces) and simple
// data contracts that the core use-cases of unlockr depend upon. It follows a
// hexagonal (ports & adapters) design: this package declares what the core
// needs, while adapter packages (pdfcpu codec, in-memory session store, HTTP
// layer, janitor jobs) provide concrete implementations. No I/O, logging, or
// network concerns belong here.
package app

import (
	"context"
	"time"

	"github.com/unlockr/unlockr/internal/domain"
)

// UploadItem is one uploaded document: its client-supplied name and raw
// bytes. It is owned by a single ProcessBatch invocation and discarded after
// producing an Outcome.
type UploadItem struct {
	Name string
	Data []byte
}

// Artifact is the decrypted output of one successfully processed item plus
// the name it is delivered under.
type Artifact struct {
	Name string
	Data []byte
}

// Outcome records the result for one named upload item. Exactly one of
// ArtifactName (on success) or Err (on failure) is set. Outcomes preserve
// the relative order of their source items.
type Outcome struct {
	SourceName   string
	Success      bool
	ArtifactName string
	Err          error
}

// BatchResult aggregates per-item outcomes and the artifacts produced for
// the successful subset. Artifacts appear in the same relative order as
// their outcomes.
type BatchResult struct {
	Outcomes  []Outcome
	Artifacts []Artifact
}

// SuccessCount returns the number of successful outcomes.
func (r *BatchResult) SuccessCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Clock abstracts time to enable deterministic testing of expiry logic.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// Codec is the document codec port: given raw document bytes and a candidate
// password it returns the re-serialized, unencrypted document. Failures are
// reported as domain.ErrWrongPassword or errors wrapping domain.ErrCorrupted;
// no error crosses a per-item boundary unwrapped.
type Codec interface {
	Unlock(ctx context.Context, data []byte, password string) ([]byte, error)
}

// SessionStore is the storage port for produced artifacts awaiting download.
// Implementations must provide the single-consume invariant: no concurrent
// caller can retrieve the same session after a successful Take.
type SessionStore interface {
	// Put stores a non-empty artifact list under a freshly generated
	// unguessable token and returns it.
	Put(ctx context.Context, artifacts []Artifact) (domain.SessionID, error)

	// Take atomically looks up and removes the session in one step. Unknown,
	// already-consumed, and expired tokens all return ErrNotFound.
	Take(ctx context.Context, id domain.SessionID) ([]Artifact, error)

	// ExpireBefore removes sessions whose expiry precedes t and returns the
	// count removed.
	ExpireBefore(ctx context.Context, t time.Time) (int, error)
}
