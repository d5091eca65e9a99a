package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/studyroom/internal/broadcast"
	"github.com/mcdev12/studyroom/internal/httpapi"
	"github.com/mcdev12/studyroom/internal/ledger"
	"github.com/mcdev12/studyroom/internal/rooms"
	"github.com/mcdev12/studyroom/internal/timer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer db.Close()

	publisherConfig := broadcast.DefaultConfig()
	publisherConfig.URL = config.NATS.URL
	publisherConfig.ReconnectWait = config.NATS.ReconnectWait
	publisher, err := broadcast.NewNATSPublisher(publisherConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect broadcast publisher")
	}
	defer publisher.Close()

	roomsApp := rooms.NewApp(rooms.NewRepository(db))
	sessionLedger := ledger.NewRepository(db)
	stateStore := timer.NewMemoryStateStore()
	controller := timer.NewController(roomsApp, sessionLedger, publisher, stateStore, clockwork.NewRealClock())

	server := setupServer(config,
		httpapi.NewTimerHandler(controller),
		httpapi.NewRoomsHandler(roomsApp))

	go func() {
		log.Info().Str("addr", server.Addr).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("studyroom API shutdown complete")
}
