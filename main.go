package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/srt-flow/backend/internal/api"
	"github.com/srt-flow/backend/internal/auth"
	"github.com/srt-flow/backend/internal/config"
	"github.com/srt-flow/backend/internal/db"
	"github.com/srt-flow/backend/internal/pipeline"
	"github.com/srt-flow/backend/internal/storage"
	"github.com/srt-flow/backend/internal/translate"
)

const connectivityInterval = 30 * time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("failed to create data directory")
	}

	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin user")
	}
	log.Info().Str("username", cfg.AdminUsername).Msg("admin user ensured")

	store, err := storage.NewStore(cfg.UploadPath, cfg.OutputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	translator := translate.NewService(database)

	pipe := pipeline.New(pipeline.Config{
		Service:  translator,
		Settings: database,
		Store:    database,
		Outputs:  store,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pipe.MonitorConnectivity(ctx, cfg.ProbeURL, connectivityInterval)

	router := api.NewRouter(database, jwtService, cfg, pipe, store)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("starting server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
