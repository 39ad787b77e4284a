/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vacation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env aware), apply flag overrides
  2. Initialize SQLite store
  3. Wire the mutation service (store as Store, WorkItemSource, and
     notification outbox)
  4. Start the outbox drain worker
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: env PORT or 8080)
  -db      SQLite database path (default: env DATABASE_PATH or
           vacation.db). Use ":memory:" for an in-memory database.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the notification worker
  3. Close the database connection

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/config"
	"github.com/warp/vacation-engine/notify"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer store.Close()

	// The store serves as range store, work item source, and the
	// atomic notification outbox.
	svc := vacation.NewService(store, store, store, logger)

	// Repair pass: the summary is derived data, so recomputing it on
	// boot is always safe.
	if err := svc.Summaries.RecomputeAll(context.Background()); err != nil {
		logger.WithError(err).Warn("summary backfill failed")
	}

	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.TelegramToken != "" {
		// Chat mappings come from operator tooling; empty here.
		tg, err := notify.NewTelegramSender(cfg.TelegramToken, nil, logger)
		if err != nil {
			logger.WithError(err).Warn("telegram sender unavailable, using log sender")
		} else {
			sender = tg
		}
	}

	notifier := api.NewNotifier(store, sender, logger)
	notifier.DrainInterval = cfg.DrainInterval
	notifier.Start()
	defer notifier.Stop()

	handler := api.NewHandler(svc, store, store, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server stopped")
}
