package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/krishnacouponstore/code-sub002/internal/infra"
)

// Topics the outbox poller publishes to, one per aggregate type.
var topics = []string{"shop.purchase", "shop.topup"}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the outbox consumer")
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, "shop-outbox-consumer", cfg.KafkaEnabled, logger)
		if !consumer.Enabled() {
			continue
		}
		defer consumer.Close()

		wg.Add(1)
		go func(topic string, c *infra.KafkaConsumer) {
			defer wg.Done()
			consume(ctx, topic, c, logger)
		}(topic, consumer)
	}

	logger.Info("outbox consumer started", "topics", topics, "brokers", cfg.KafkaBrokers)
	wg.Wait()
	logger.Info("outbox consumer stopped")
	return nil
}

func consume(ctx context.Context, topic string, c *infra.KafkaConsumer, logger *slog.Logger) {
	for {
		msg, err := c.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("read message", "topic", topic, "error", err)
			continue
		}
		logger.Info("domain event",
			"topic", topic,
			"key", string(msg.Key),
			"offset", msg.Offset,
			"value", string(msg.Value),
		)
	}
}
