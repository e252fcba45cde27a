package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/louaab/rental-backend/internal/config"
	kafkax "github.com/louaab/rental-backend/internal/kafka"
	"github.com/louaab/rental-backend/internal/redisx"
	"github.com/louaab/rental-backend/internal/rental"
	"github.com/louaab/rental-backend/internal/stockfeed"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockfeed.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-stockfeed",
		Log:         log,
	}

	group := getenv("STOCKFEED_GROUP", "stockfeed-svc")
	workers := atoi(getenv("STOCKFEED_WORKERS", "4"))
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, rental.TopicStockChanged, workers, log)

	go func() {
		log.Info("stockfeed consumer started",
			zap.String("group", group),
			zap.String("topic", rental.TopicStockChanged),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleStockChanged); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 {
		return 1
	}
	return i
}
