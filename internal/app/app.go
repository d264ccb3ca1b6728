// v3
// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	gorillahandlers "github.com/gorilla/handlers"

	"rotctools/attendance/internal/config"
	"rotctools/attendance/internal/httpserver"
	"rotctools/attendance/internal/ingest"
	"rotctools/attendance/internal/journal"
	"rotctools/attendance/internal/metrics"
	"rotctools/attendance/internal/seed"
)

// Application wires configuration, logging, the mark journal, stream
// ingestion, and the HTTP API together with graceful shutdown handling.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	logFile  *os.File
	server   *http.Server
	health   *httpserver.HealthState
	consumer *ingest.MarkConsumer
	journal  *journal.Journal
	metrics  *metrics.Metrics
	seeder   *seed.Client
	store    *ingest.RecordStore
}

// New prepares a fully wired service instance using the supplied
// configuration. It validates basic settings, ensures the log directory
// exists, replays the mark journal, and initializes the HTTP router with
// middleware.
func New(cfg config.Config) (*Application, error) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	logPath := filepath.Clean(cfg.LogFilePath)
	if logPath == "" {
		return nil, errors.New("log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := newLogger(lf)
	apiCfg := httpserver.LoadAPIConfig()
	logger.Info("http_api_config_loaded",
		slog.Int("default_top", apiCfg.DefaultTop),
		slog.Int("max_top", apiCfg.MaxTop),
	)
	health := httpserver.NewHealthState()
	m := metrics.NewMetrics()

	store := ingest.NewRecordStore()

	journalLogger := logger.With(slog.String("component", "journal"))
	jnl, err := journal.Open(cfg.JournalDir, journalLogger)
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("journal init: %w", err)
	}
	restored, err := jnl.Replay(store)
	if err != nil {
		_ = jnl.Close()
		_ = lf.Close()
		return nil, fmt.Errorf("journal replay: %w", err)
	}
	persons, days := store.Size()
	m.StoreDepth(persons, days)
	journalLogger.Info("journal_replayed",
		slog.String("path", jnl.Path()),
		slog.Int("restored", restored),
		slog.Int("persons", persons),
		slog.Int("days", days),
	)

	consumerLogger := logger.With(slog.String("component", "mark_consumer"))
	consumer, err := ingest.NewMarkConsumer(ingest.MarkConsumerConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.MarkTopic,
		GroupID:     cfg.MarkGroupID,
		PollTimeout: cfg.MarkPollTimeout,
	}, store, jnl, m, consumerLogger)
	if err != nil {
		_ = jnl.Close()
		_ = lf.Close()
		return nil, fmt.Errorf("mark consumer init: %w", err)
	}

	var seeder *seed.Client
	if strings.TrimSpace(cfg.SeedBaseURL) != "" {
		seeder = seed.NewClient(cfg.SeedBaseURL, cfg.Unit, logger.With(slog.String("component", "seed")))
	}

	handlers := httpserver.NewHandlers(
		logger.With(slog.String("component", "api")),
		store,
		cfg.Unit,
		apiCfg,
		cfg.SmoothWindow,
		cfg.CacheTTL,
		m,
	)

	router := httpserver.NewRouter(logger, health, handlers, m)
	handler := httpserver.WrapWithLogging(logger,
		gorillahandlers.RecoveryHandler()(gorillahandlers.CompressHandler(router)))
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPWriteTimeout,
	}

	return &Application{
		cfg:      cfg,
		logger:   logger,
		logFile:  lf,
		server:   server,
		health:   health,
		consumer: consumer,
		journal:  jnl,
		metrics:  m,
		seeder:   seeder,
		store:    store,
	}, nil
}

// Logger exposes the configured slog logger so callers (such as main)
// can emit structured logs after initialization.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Run blocks until the context is cancelled or the HTTP server
// terminates unexpectedly. It manages seeding, readiness probes, and
// graceful shutdown behaviour.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.runSeed(ctx)

	httpCh := make(chan error, 1)
	go func() {
		a.health.SetReady(true)
		a.logger.Info("http_server_listen", slog.String("address", a.cfg.ListenAddress))
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpCh <- err
			return
		}
		httpCh <- err
	}()

	var markCh chan error
	if a.consumer != nil {
		markCh = make(chan error, 1)
		go func() {
			markCh <- a.consumer.Run(ctx)
		}()
	}

	var httpErr error
	var markErr error

	for {
		select {
		case err := <-httpCh:
			httpErr = err
			httpCh = nil
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http_server_error", slog.Any("err", err))
			} else {
				a.logger.Info("server_closed")
			}
			cancel()
		case err := <-markCh:
			markErr = err
			markCh = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("mark_consumer_error", slog.Any("err", err))
			} else if err == nil {
				a.logger.Info("mark_consumer_completed")
			}
			cancel()
		case <-ctx.Done():
			a.logger.Info("shutdown_signal")
			a.health.SetReady(false)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				if !errors.Is(err, context.Canceled) {
					a.logger.Error("server_shutdown_failed", slog.Any("err", err))
					if httpErr == nil {
						httpErr = fmt.Errorf("shutdown: %w", err)
					}
				}
			}
			shutdownCancel()

			if httpCh != nil {
				if err := <-httpCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("server_shutdown_error", slog.Any("err", err))
					if httpErr == nil {
						httpErr = err
					}
				}
			}
			if markCh != nil {
				if err := <-markCh; err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("mark_consumer_shutdown_error", slog.Any("err", err))
					if markErr == nil {
						markErr = err
					}
				}
			}

			if markErr != nil && !errors.Is(markErr, context.Canceled) {
				return markErr
			}
			if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
				return httpErr
			}
			a.logger.Info("shutdown_complete")
			return nil
		}
	}
}

// runSeed primes the store from the snapshot endpoint when one is
// configured. Seeding failures degrade to an empty store because the
// stream will backfill history from the first offset anyway.
func (a *Application) runSeed(ctx context.Context) {
	if a.seeder == nil {
		return
	}
	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	applied, err := a.seeder.Load(seedCtx, a.store)
	a.metrics.SeedRequest(time.Since(start), err == nil)
	if err != nil {
		a.logger.Warn("seed_failed", slog.Any("err", err))
		return
	}
	persons, days := a.store.Size()
	a.metrics.StoreDepth(persons, days)
	a.logger.Info("seed_applied",
		slog.Int("marks", applied),
		slog.Int("persons", persons),
		slog.Int("days", days),
	)
}

// Close flushes and closes resources owned by the application instance.
func (a *Application) Close() error {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			return err
		}
		a.consumer = nil
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			return err
		}
		a.journal = nil
	}
	if a.logFile == nil {
		return nil
	}
	if err := a.logFile.Close(); err != nil {
		return err
	}
	a.logFile = nil
	return nil
}
