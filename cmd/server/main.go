package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dennisdiepolder/monti/callanalytics/internal/api"
	"github.com/dennisdiepolder/monti/callanalytics/internal/callgen"
	"github.com/dennisdiepolder/monti/callanalytics/internal/config"
	"github.com/dennisdiepolder/monti/callanalytics/internal/gateway"
	"github.com/dennisdiepolder/monti/callanalytics/internal/query"
	"github.com/dennisdiepolder/monti/callanalytics/internal/storage"
	"github.com/dennisdiepolder/monti/callanalytics/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	storeCfg, err := storage.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load store configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.TimeZone).
		Str("store", string(storeCfg.Mode)).
		Msg("starting call analytics server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connector, err := storage.NewConnector(ctx, storeCfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create store connector")
	}

	callQuery, err := query.NewCallQuery(storeCfg.Table)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid table name")
	}

	sample, err := callgen.Sample(cfg.SampleSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build sample records")
	}

	gw := gateway.New(connector, callQuery, log.Logger)
	callsHandler := api.NewCallsHandler(gw, sample, cfg.Location, log.Logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, callsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// The embedded store holds the database file open
	if closer, ok := connector.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}

	log.Info().Msg("server stopped")
}

// newRouter wires middleware and routes
func newRouter(cfg *config.Config, calls *api.CallsHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler)
	r.Get("/calls_data", calls.GetSample)
	r.Get("/calls_data_pinot", calls.GetFiltered)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"call-analytics"}`)
}
