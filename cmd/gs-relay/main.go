// Command gs-relay forwards committed product events from the outbox table
// to Kafka.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/desantiago/gallery-shop/internal/config"
	"github.com/desantiago/gallery-shop/internal/log"
	"github.com/desantiago/gallery-shop/internal/relay"
	"github.com/desantiago/gallery-shop/internal/repository"
	"github.com/desantiago/gallery-shop/internal/storage/db"
	"github.com/desantiago/gallery-shop/internal/storage/mq"
	"github.com/desantiago/gallery-shop/internal/telemetry"
	"github.com/desantiago/gallery-shop/pkg/cmdutil"
)

// relayConfig is everything the outbox relay reads from the environment.
type relayConfig struct {
	Log    config.Log
	Outbox config.Postgres
	Relay  config.Relay
	Broker config.Kafka
	Otel   config.Otel
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gs-relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	cfg, err := config.New[relayConfig]()
	if err != nil {
		return fmt.Errorf("load relay config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log).With(slog.String("component", "outbox-relay"))

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "flushing traces failed", slog.Any("error", err))
		}
	}()

	pool, err := db.NewPgxPool(ctx, cfg.Outbox)
	if err != nil {
		return fmt.Errorf("connect outbox database: %w", err)
	}
	defer pool.Close()

	producer, err := mq.NewKafkaProducer(ctx, cfg.Broker)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer producer.Close()

	store := db.NewClient(pool)
	relaySvc := relay.NewService(cfg.Relay, logger, store, repository.NewOutboxMsgRepository(store), producer)

	stop := cmdutil.InterruptChan()
	drain := relaySvc.Run(ctx)
	logger.InfoContext(ctx, "outbox relay running",
		slog.Any("batch_size", cfg.Relay.BatchSize),
		slog.Duration("interval", cfg.Relay.Interval),
	)

	<-stop
	logger.InfoContext(ctx, "draining in-flight outbox batch", slog.Duration("timeout", cfg.Relay.DrainTimeout))
	drain()
	logger.InfoContext(ctx, "outbox relay stopped")

	return nil
}
