/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the point ledger server. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Configure zerolog
  3. Initialize the store (in-memory by default, SQLite with -db)
  4. Create the engine, handler, and router
  5. Start server with graceful shutdown

CONFIGURATION:
  -port      HTTP server port (default: 8080, env: PORT)
  -db        SQLite database path; empty means in-memory store
             (env: DB_PATH; use ":memory:" for throwaway SQLite)
  -log-level zerolog level (default: info, env: LOG_LEVEL)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with the in-memory store
  ./server

  # Run with a SQLite database
  ./server -db="./data/points.db"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warp/point-ledger/api"
	"github.com/warp/point-ledger/point"
	memstore "github.com/warp/point-ledger/point/store"
	"github.com/warp/point-ledger/store/sqlite"
)

func main() {
	// .env is optional; flags and env defaults cover everything.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", os.Getenv("DB_PATH"), "SQLite database path (empty = in-memory store)")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level (trace|debug|info|warn|error)")
	flag.Parse()

	log := newLogger(*logLevel)

	// Store selection: the engine only sees the point.Store contract.
	var st point.Store
	var closeStore func() error
	if *dbPath == "" {
		st = memstore.NewMemory()
		closeStore = func() error { return nil }
		log.Info().Msg("using in-memory store")
	} else {
		sqlStore, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		st = sqlStore
		closeStore = sqlStore.Close
		log.Info().Str("path", *dbPath).Msg("using sqlite store")
	}
	defer closeStore()

	engine := point.NewEngine(st, log)
	handler := api.NewHandler(engine, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
