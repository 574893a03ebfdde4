// Package main provides the unlockr binary entry point that starts the HTTP
// server for batch PDF password removal. It loads configuration from
// environment variables, validates it, wires the codec, session store,
// janitor, and metrics manager together, and then starts the HTTP server.
//
// The application flow:
//  1. Load defaults and apply environment variables.
//  2. Validate configuration.
//  3. Open the metrics database and start the flush loop.
//  4. Start the session janitor.
//  5. Configure and start the HTTP server.
//
// It blocks until the server exits with an error (other than
// http.ErrServerClosed) and exits the process with a non-zero status code on
// configuration or fatal server errors.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unlockr/unlockr/internal/app"
	codec "github.com/unlockr/unlockr/internal/codec/pdfcpu"
	"github.com/unlockr/unlockr/internal/config"
	"github.com/unlockr/unlockr/internal/httpx"
	"github.com/unlockr/unlockr/internal/janitor"
	"github.com/unlockr/unlockr/internal/metrics"
	"github.com/unlockr/unlockr/internal/store"
)

// realClock implements app.Clock using time.Now.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(2)
	}
	return cfg
}

func ensureDataDir(dir string) {
	if st, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
				slog.Error("failed to create data directory", "dir", dir, "err", mkErr)
				os.Exit(3)
			}
		} else {
			slog.Error("stat data directory", "dir", dir, "err", err)
			os.Exit(3)
		}
	} else if !st.IsDir() {
		slog.Error("data path not directory", "dir", dir)
		os.Exit(3)
	}
}

func openMetricsDB(ctx context.Context, dataDir string, cfg *config.Config) (*sql.DB, *metrics.Manager) {
	dbPath := filepath.Join(dataDir, "unlockr.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		slog.Error("open sqlite driver", "err", err)
		os.Exit(4)
	}
	m := metrics.New(db, metrics.Config{FlushInterval: cfg.MetricsFlushInterval})
	if err := m.InitSchema(ctx); err != nil {
		slog.Error("init metrics schema", "err", err)
		os.Exit(4)
	}
	return db, m
}

func buildHandler(cfg *config.Config, svc *app.Service, sessions *store.Memory, db *sql.DB, m *metrics.Manager) http.Handler {
	h := httpx.New(svc, sessions, int64(cfg.MaxUploadBytes))
	h.Readiness = func(ctx context.Context) error { return db.PingContext(ctx) }
	h.Metrics = m
	h.Stats = metrics.Handler(m, cfg.MetricsToken)
	return h.Router()
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func run() error {
	cfg := loadConfig()
	ensureDataDir(cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, m := openMetricsDB(ctx, cfg.DataDir, cfg)
	defer db.Close()
	m.Start(ctx)
	defer m.Stop(context.Background())

	clock := realClock{}
	sessions := store.New(clock, cfg.SessionTTL)
	svc := &app.Service{Codec: codec.New(), Sessions: sessions, Workers: cfg.Workers}

	jan := janitor.New(sessions, janitor.Config{
		Interval: cfg.SweepInterval,
		OnExpired: func(n int) {
			m.Inc(metrics.CounterSessionsExpired, int64(n))
		},
	})
	jan.Start(ctx)
	defer jan.Stop()

	srv := newServer(cfg, buildHandler(cfg, svc, sessions, db, m))
	slog.Info("starting server", "addr", cfg.Addr, "pid", os.Getpid())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
