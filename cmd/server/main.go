/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the networth EPF server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Configure zerolog
  3. Open the store (SQLite or PostgreSQL)
  4. Build the engine from EPF_ANNUAL_RATE and the optional rate file
  5. Load stored rates, create API handler, configure router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, env PORT)
  -db      SQLite database path (default: networth.db, env DB_PATH)
           Use ":memory:" for in-memory database
  -driver  sqlite or postgres (env DB_DRIVER)
  -rates   Rate policy JSON file (env EPF_RATES_FILE)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop background workers
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/networth.db"

  # Run against PostgreSQL with the EPFO declared rates
  DB_DRIVER=postgres DATABASE_URL=postgres://localhost/networth ./server -rates=rates.json

SEE ALSO:
  - config/config.go: All settings
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/warp/networth/api"
	"github.com/warp/networth/config"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/factory"
	"github.com/warp/networth/store/postgres"
	"github.com/warp/networth/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	// Initialize store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize database")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.DBDriver).Msg("Connected to database")

	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load rate policy")
	}

	// Initialize handler
	handler := api.NewHandler(store, engine)
	handler.Validation.RejectOverlaps = cfg.RejectOverlaps
	if err := handler.LoadRates(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load stored rates")
	}
	log.Info().
		Str("annual_rate", handler.Engine().AnnualRate.String()).
		Ints("rate_years", handler.Engine().Rates.Years()).
		Msg("EPF rate policy ready")

	limiter := api.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer limiter.Stop()

	refresher := api.NewRateRefresher(handler, cfg.RateRefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		RateLimiter: limiter,
		TrustProxy:  cfg.TrustProxy,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (epf.Store, func() error, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}

// buildEngine applies EPF_ANNUAL_RATE, then the rate file if one is set.
// A file without default_rate keeps the configured flat rate.
func buildEngine(cfg *config.Config) (*epf.Engine, error) {
	f := factory.NewRateFactory()
	if cfg.RatesFile == "" {
		rate := cfg.AnnualRate
		return f.FromJSON(factory.RatePolicyJSON{DefaultRate: &rate})
	}

	raw, err := os.ReadFile(cfg.RatesFile)
	if err != nil {
		return nil, err
	}
	pj, err := f.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.RatesFile, err)
	}
	if pj.DefaultRate == nil {
		rate := cfg.AnnualRate
		pj.DefaultRate = &rate
	}
	return f.FromJSON(pj)
}
