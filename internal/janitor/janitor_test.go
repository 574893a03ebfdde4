package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// --- Fakes / Mocks ---

type fakeStore struct {
	mu          sync.Mutex
	expireCount int
	expireErr   error
	callsExpire int
}

func (fs *fakeStore) ExpireBefore(ctx context.Context, t time.Time) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.callsExpire++
	if fs.expireErr != nil {
		return 0, fs.expireErr
	}
	return fs.expireCount, nil
}

func (fs *fakeStore) calls() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.callsExpire
}

func TestJanitorCycleSuccess(t *testing.T) {
	fs := &fakeStore{expireCount: 3}
	var reported int
	j := New(fs, Config{Interval: time.Hour, Logger: slog.Default(), OnExpired: func(n int) { reported = n }})
	j.runCycle(context.Background())
	if fs.calls() != 1 {
		t.Fatalf("expected one expire call, got %d", fs.calls())
	}
	if reported != 3 {
		t.Fatalf("expected 3 expired reported, got %d", reported)
	}
}

func TestJanitorCycleExpireError(t *testing.T) {
	fs := &fakeStore{expireErr: errors.New("boom")}
	called := false
	j := New(fs, Config{Interval: time.Hour, Logger: slog.Default(), OnExpired: func(int) { called = true }})
	j.runCycle(context.Background())
	if called {
		t.Fatalf("OnExpired fired despite expire error")
	}
}

func TestJanitorNoCallbackOnZeroExpired(t *testing.T) {
	fs := &fakeStore{expireCount: 0}
	called := false
	j := New(fs, Config{Interval: time.Hour, OnExpired: func(int) { called = true }})
	j.runCycle(context.Background())
	if called {
		t.Fatalf("OnExpired fired for zero expirations")
	}
}

func TestJanitorStartStop(t *testing.T) {
	fs := &fakeStore{expireCount: 1}
	j := New(fs, Config{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j.Start(ctx)
	// Let at least one cycle fire.
	time.Sleep(50 * time.Millisecond)
	j.Stop()
	if fs.calls() == 0 {
		t.Fatalf("no cycles ran before Stop")
	}
}

func TestJanitorStopViaContext(t *testing.T) {
	fs := &fakeStore{}
	j := New(fs, Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)
	cancel()
	select {
	case <-j.doneCh:
	case <-time.After(time.Second):
		t.Fatalf("janitor did not exit on context cancel")
	}
}

func TestJanitorDefaultInterval(t *testing.T) {
	j := New(&fakeStore{}, Config{})
	if j.cfg.Interval != time.Minute {
		t.Fatalf("expected default interval, got %v", j.cfg.Interval)
	}
}
