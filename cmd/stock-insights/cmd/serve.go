package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/stock-insights/internal/api"
	"github.com/trogers1052/stock-insights/internal/database"
	"github.com/trogers1052/stock-insights/internal/kafka"
	"github.com/trogers1052/stock-insights/internal/screener"
	"github.com/trogers1052/stock-insights/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", serviceVersion).
		Msg("Starting Stock Insights API")

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connected")

	if err := db.RunMigrations(); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Session.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected")
	}

	sessions, err := session.New(cfg.Session, redisClient)
	if err != nil {
		return err
	}
	log.Info().
		Str("backend", cfg.Session.Backend).
		Dur("ttl", cfg.Session.TTL).
		Msg("Session store ready")

	screenerSvc := screener.NewService(screener.NewClient(cfg.Screener), sessions)

	var publisher api.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka producer enabled")
	}

	if cfg.Kafka.ImportEnabled {
		consumer := kafka.NewImportConsumer(cfg.Kafka.Brokers, cfg.Kafka.ImportTopic, cfg.Kafka.GroupID, db)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("Kafka import consumer stopped")
			}
		}()
	}

	handler := api.NewHandler(db, screenerSvc, publisher)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewServerHandler(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("Failed to start API server")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Stock Insights API stopped")
	return nil
}
