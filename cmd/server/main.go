// Package main is the entry point for the heating-roster API server.
//
// It loads configuration from the environment (optionally via .env), sets up
// structured logging and OpenTelemetry, opens the configured backing store
// (an Excel workbook or a SQLite database), wires the HTTP router, and runs
// an http.Server with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-heating-backend/internal/config"
	httpapi "github.com/tbourn/go-heating-backend/internal/http"
	"github.com/tbourn/go-heating-backend/internal/observability"
	"github.com/tbourn/go-heating-backend/internal/sheet"
	"github.com/tbourn/go-heating-backend/internal/sheet/sqlgrid"
	"github.com/tbourn/go-heating-backend/internal/sheet/xlsxgrid"
	"github.com/tbourn/go-heating-backend/internal/sysutil"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	grid, cleanup, err := openGrid(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("backing store open failed")
	}
	defer cleanup()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, grid, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("backend", cfg.Backend).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Block until SIGINT/SIGTERM, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// openGrid opens the backing store selected by STORE_BACKEND. The returned
// cleanup releases whatever the backend holds open (a no-op for the workbook,
// which is opened per operation).
func openGrid(cfg config.Config) (sheet.Grid, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		g, err := sqlgrid.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return g, func() {
			if err := g.Close(); err != nil {
				log.Warn().Err(err).Msg("sqlite close")
			}
		}, nil
	default:
		g, err := xlsxgrid.Open(cfg.SheetPath, cfg.SheetName)
		if err != nil {
			return nil, nil, err
		}
		return g, func() {}, nil
	}
}
