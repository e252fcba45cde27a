package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/louaab/rental-backend/internal/config"
	"github.com/louaab/rental-backend/internal/httpx"
	kafkax "github.com/louaab/rental-backend/internal/kafka"
	"github.com/louaab/rental-backend/internal/lifecycle"
	"github.com/louaab/rental-backend/internal/postgres"
	"github.com/louaab/rental-backend/internal/redisx"
	"github.com/louaab/rental-backend/internal/rental"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: stock events + order events
	stockProd := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicStockChanged, 1024, log)
	stockProd.Start(ctx)
	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicOrderEvents, 1024, log)
	orderProd.Start(ctx)

	notifier := &lifecycle.KafkaNotifier{
		Stock:       stockProd,
		Orders:      orderProd,
		ServiceName: cfg.ServiceName,
	}

	// Stores & ledger
	ledger := &rental.LedgerRepo{DB: db, Notifier: notifier, LockWait: cfg.LockWait, Log: log}
	engine := &lifecycle.Engine{
		Orders:    &rental.Repo{DB: db},
		Toys:      &rental.ToyRepo{DB: db},
		Customers: &rental.CustomerRepo{DB: db},
		Ledger:    ledger,
		Events:    notifier,
		Log:       log,
	}

	// HTTP
	validate := validator.New()
	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Engine: engine, Redis: rdb, Validate: validate}).Register(router)
	(&httpx.ToysHandler{Toys: engine.Toys, Ledger: ledger, Redis: rdb, Validate: validate}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	stockProd.Close() // tutup inbox -> flush & close writer
	orderProd.Close()
	stockProd.WaitClosed()
	orderProd.WaitClosed()
}
