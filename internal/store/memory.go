// Package store provides the in-memory implementation of the application
// SessionStore port. Sessions are intentionally ephemeral: they live in
// process memory only, are consumed at most once, and are swept after their
// expiry. External packages construct the store via New and interact only
// through the app.SessionStore interface.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

var _ app.SessionStore = (*Memory)(nil)

// entry is one live session: its artifacts and absolute expiry.
// A zero expiry means the session never expires.
type entry struct {
	artifacts []app.Artifact
	expiresAt time.Time
}

// Memory is a mutex-guarded map from session tokens to artifact bundles.
// A single lock covers both lookup and delete so Take is atomic under
// concurrent access.
type Memory struct {
	mu      sync.Mutex
	entries map[domain.SessionID]entry
	clock   app.Clock
	ttl     time.Duration
}

// New returns an empty store. Sessions created through Put expire ttl after
// creation; ttl <= 0 disables expiry.
func New(clock app.Clock, ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[domain.SessionID]entry),
		clock:   clock,
		ttl:     ttl,
	}
}

// Put stores artifacts under a freshly generated token and returns it.
// The artifact slice must be non-empty; zero-success batches never create
// sessions.
func (m *Memory) Put(_ context.Context, artifacts []app.Artifact) (domain.SessionID, error) {
	if len(artifacts) == 0 {
		return "", errors.New("refusing to store empty artifact list")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var id domain.SessionID
	for {
		var err error
		id, err = domain.NewID()
		if err != nil {
			return "", err
		}
		if _, exists := m.entries[id]; !exists {
			break
		}
		// 128-bit collision with a live token; regenerate.
	}
	e := entry{artifacts: artifacts}
	if m.ttl > 0 {
		e.expiresAt = m.clock.Now().Add(m.ttl)
	}
	m.entries[id] = e
	return id, nil
}

// Take removes and returns the session's artifacts exactly once. Unknown,
// already-consumed, and expired tokens are indistinguishable: all return
// app.ErrNotFound. An expired entry found here is deleted on the spot rather
// than waiting for the janitor.
func (m *Memory) Take(_ context.Context, id domain.SessionID) ([]app.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, app.ErrNotFound
	}
	delete(m.entries, id)
	if !e.expiresAt.IsZero() && m.clock.Now().After(e.expiresAt) {
		return nil, app.ErrNotFound
	}
	return e.artifacts, nil
}

// ExpireBefore removes sessions whose expiry precedes t and returns the count.
func (m *Memory) ExpireBefore(_ context.Context, t time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if !e.expiresAt.IsZero() && e.expiresAt.Before(t) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
