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

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"typerace/internal/config"
	"typerace/internal/coordinator"
	"typerace/internal/gateway"
	"typerace/internal/race"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", configPath).Msg("no config file, using defaults")
		} else {
			log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
		}
	}
	port := getEnv("PORT", cfg.Server.Port)

	log.Info().Str("port", port).Msg("starting typerace server")

	// Core wiring: store -> coordinator -> gateway
	store := race.NewStore(clockwork.NewRealClock())

	connConfig := gateway.DefaultConnectionConfig()
	connConfig.PingInterval = cfg.WebSocket.PingInterval()
	connConfig.ReadTimeout = cfg.WebSocket.ReadTimeout()
	connConfig.WriteTimeout = cfg.WebSocket.WriteTimeout()
	connConfig.MaxMessageSize = cfg.WebSocket.MaxMessageBytes
	connConfig.ReadBufferSize = cfg.WebSocket.ReadBufferSize
	connConfig.WriteBufferSize = cfg.WebSocket.WriteBufferSize

	connectionManager := gateway.NewConnectionManager(connConfig)
	coord := coordinator.New(store, connectionManager)
	gatewayService := gateway.NewService(connectionManager, coord, store, cfg.Rooms.DefaultText)

	// HTTP routes
	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      c.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the coordinator event loop
	go coord.Run(ctx)

	// Start the room janitor (no-op unless retention is configured)
	go store.RunJanitor(ctx, cfg.Rooms.Retention(), cfg.Rooms.SweepInterval())

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
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

	log.Info().Msg("typerace server shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
