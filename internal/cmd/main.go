package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vlasebian/timerbe/internal/timer"
	"github.com/vlasebian/timerbe/internal/timer/gateway"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config, err := loadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	policy, err := config.deliveryPolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid gateway configuration")
	}

	// Each instance gets an origin ID so NATS fan-out can skip its own events
	originID := uuid.New().String()
	natsURL := os.Getenv("NATS_URL")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	pool, err := setupDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer pool.Close()

	// Wire the timer engine
	repo := timer.NewRepository(pool)
	app := timer.NewApp(repo, clockwork.NewRealClock())

	// Wire the WebSocket gateway
	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	var publisher gateway.ResultPublisher
	var consumer *gateway.EventConsumer
	if natsURL != "" {
		natsCfg := gateway.DefaultNATSConfig()
		natsCfg.URL = natsURL
		natsCfg.SubjectPrefix = config.Gateway.SubjectPrefix

		natsPublisher, err := gateway.NewNATSPublisher(natsCfg, originID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS publisher")
		}
		defer natsPublisher.Close()
		publisher = natsPublisher

		consumer, err = gateway.NewEventConsumer(connectionManager, natsCfg, originID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS consumer")
		}
		defer consumer.Close()
	}

	service := gateway.NewService(app, connectionManager, policy, publisher)
	connectionManager.SetHandler(service)

	wsHandler := gateway.NewWebSocketHandler(connectionManager)
	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)

	server := setupServer(mux)

	log.Info().
		Str("addr", server.Addr).
		Str("policy", string(policy)).
		Str("origin_id", originID).
		Bool("nats", natsURL != "").
		Msg("starting timer backend")

	// Start connection manager
	go connectionManager.Start(ctx)

	// Start NATS consumer
	if consumer != nil {
		if err := consumer.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start NATS consumer")
		}
	}

	// Start HTTP server
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
}
