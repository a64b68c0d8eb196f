package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-storefront/internal/catalogsync"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-catalogsync"

	logger, err := logx.New(cfg.LogLevel, cfg.LogFormat, name)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &catalogsync.Service{
		Cache: redisx.NewProductCache(rdb),
		Mark: func(ctx context.Context, key string) (bool, error) {
			return redisx.MarkOnce(ctx, rdb, key, redisx.TTLDedup)
		},
		ServiceName: name,
		Log:         logger,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.CatalogSyncGroup, events.TopicProductChanged, cfg.CatalogSyncWorkers, logger)
	logger.Info("catalog sync consumer started",
		zap.String("group", cfg.CatalogSyncGroup),
		zap.String("topic", events.TopicProductChanged),
		zap.Int("workers", cfg.CatalogSyncWorkers))

	if err := cons.Start(ctx, svc.HandleProductChanged); err != nil && ctx.Err() == nil {
		logger.Error("consumer exit", zap.Error(err))
	}
	logger.Info("consumer stopped")
}
