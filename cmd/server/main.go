package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/api"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/config"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/core"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/handlers"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/store"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// File store holds history logs, voice-note blobs and, by default,
	// the registry snapshots.
	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("file store init failed")
	}
	logger.Info().Str("dir", fileStore.Dir()).Msg("file store ready")

	// Optional PostgreSQL registry backend
	var registry store.RegistryStore = fileStore
	var pgRegistry *store.PostgresRegistry
	if cfg.DatabaseURL != "" {
		pgRegistry, err = store.NewPostgresRegistry(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgRegistry.Close()
		registry = pgRegistry
		logger.Info().Msg("registry backed by PostgreSQL")
	}

	// Optional Redis pending-queue backend
	var queue core.Queue = core.NewMemoryQueue()
	var redisQueue *store.RedisQueue
	if cfg.RedisURL != "" {
		redisQueue, err = store.NewRedisQueue(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisQueue.Close()
		queue = redisQueue
		logger.Info().Msg("pending queue backed by Redis")
	}

	// Assemble the core
	directory, err := core.NewDirectory(ctx, registry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("directory init failed")
	}
	presence := core.NewPresence(logger, cfg.PushTimeout)
	dispatcher := core.NewDispatcher(presence, queue, directory, cfg.PushTimeout, logger)
	chat := core.New(presence, directory, queue, dispatcher, fileStore, logger)

	// HTTP surface
	h := handlers.NewHandler(chat)
	h.AddCheck("data_dir", fileStore.Ping)
	if pgRegistry != nil {
		h.AddCheck("postgres", pgRegistry.Ping)
	}
	if redisQueue != nil {
		h.AddCheck("redis", redisQueue.Ping)
	}

	wsHandler := ws.NewHandler(chat, logger)
	router := api.NewRouter(logger, h, wsHandler.Serve, cfg.MaxVoiceNoteBytes)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
