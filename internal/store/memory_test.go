package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

// fakeClock implements app.Clock with a settable instant.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Memory, *fakeClock) {
	fc := &fakeClock{now: time.Unix(1700000000, 0).UTC()}
	return New(fc, ttl), fc
}

func arts(names ...string) []app.Artifact {
	var out []app.Artifact
	for _, n := range names {
		out = append(out, app.Artifact{Name: n, Data: []byte(n)})
	}
	return out
}

func TestPutRejectsEmpty(t *testing.T) {
	m, _ := newTestStore(time.Minute)
	if _, err := m.Put(context.Background(), nil); err == nil {
		t.Fatalf("expected error storing empty artifact list")
	}
	if m.Len() != 0 {
		t.Fatalf("store not empty after rejected Put")
	}
}

func TestPutTakeRoundTrip(t *testing.T) {
	m, _ := newTestStore(time.Minute)
	id, err := m.Put(context.Background(), arts("a_unlocked.pdf", "b_unlocked.pdf"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if !id.Valid() {
		t.Fatalf("Put returned invalid id: %s", id)
	}
	got, err := m.Take(context.Background(), id)
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "a_unlocked.pdf" || got[1].Name != "b_unlocked.pdf" {
		t.Fatalf("artifacts mismatch: %+v", got)
	}
	if m.Len() != 0 {
		t.Fatalf("entry survived its Take")
	}
}

func TestTakeExactlyOnce(t *testing.T) {
	m, _ := newTestStore(time.Minute)
	id, _ := m.Put(context.Background(), arts("a.pdf"))
	if _, err := m.Take(context.Background(), id); err != nil {
		t.Fatalf("first Take error: %v", err)
	}
	if _, err := m.Take(context.Background(), id); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("second Take: expected ErrNotFound, got %v", err)
	}
}

func TestTakeUnknownToken(t *testing.T) {
	m, _ := newTestStore(time.Minute)
	if _, err := m.Take(context.Background(), domain.SessionID("0123456789abcdef0123456789abcdef")); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTakeConcurrentSingleWinner(t *testing.T) {
	m, _ := newTestStore(time.Minute)
	id, _ := m.Put(context.Background(), arts("a.pdf"))

	const goroutines = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Take(context.Background(), id); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly one successful Take, got %d", n)
	}
}

func TestTakeExpiredEntry(t *testing.T) {
	m, fc := newTestStore(time.Minute)
	id, _ := m.Put(context.Background(), arts("a.pdf"))
	fc.advance(2 * time.Minute)
	if _, err := m.Take(context.Background(), id); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired entry, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry not removed by Take")
	}
}

func TestExpireBefore(t *testing.T) {
	m, fc := newTestStore(time.Minute)
	old, _ := m.Put(context.Background(), arts("old.pdf"))
	fc.advance(30 * time.Second)
	fresh, _ := m.Put(context.Background(), arts("fresh.pdf"))

	// 70s after the first Put: the first has expired, the second has not.
	fc.advance(40 * time.Second)
	n, err := m.ExpireBefore(context.Background(), fc.Now())
	if err != nil {
		t.Fatalf("ExpireBefore error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if _, err := m.Take(context.Background(), old); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("swept session still retrievable")
	}
	if _, err := m.Take(context.Background(), fresh); err != nil {
		t.Fatalf("live session lost by sweep: %v", err)
	}
}

func TestNoExpiryWhenTTLDisabled(t *testing.T) {
	m, fc := newTestStore(0)
	id, _ := m.Put(context.Background(), arts("a.pdf"))
	fc.advance(1000 * time.Hour)
	if n, _ := m.ExpireBefore(context.Background(), fc.Now()); n != 0 {
		t.Fatalf("ttl-less entry swept: %d", n)
	}
	if _, err := m.Take(context.Background(), id); err != nil {
		t.Fatalf("ttl-less entry not retrievable: %v", err)
	}
}
