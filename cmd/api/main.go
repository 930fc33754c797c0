package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkpress/go-print-payments/internal/config"
	"github.com/inkpress/go-print-payments/internal/httpx"
	"github.com/inkpress/go-print-payments/internal/identity"
	kafkax "github.com/inkpress/go-print-payments/internal/kafka"
	"github.com/inkpress/go-print-payments/internal/notify"
	"github.com/inkpress/go-print-payments/internal/orders"
	"github.com/inkpress/go-print-payments/internal/postgres"
	"github.com/inkpress/go-print-payments/internal/recon"
	"github.com/inkpress/go-print-payments/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer utk notifikasi order.paid
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024)
	prod.Start(ctx)

	// Repos, engine, reconciler
	orderRepo := &orders.Repo{DB: db}
	ledgerRepo := &orders.LedgerRepo{DB: db}
	customerRepo := &orders.CustomerRepo{DB: db}

	dispatcher := &notify.KafkaDispatcher{Producer: prod, Service: cfg.ServiceName, Log: logger}
	engine := recon.New(orderRepo, ledgerRepo, dispatcher, cfg.CreditRate, logger)
	ident := identity.New(customerRepo, logger)

	router := httpx.NewRouter()
	ph := &httpx.PaymentsHandler{
		Engine:   engine,
		Identity: ident,
		Orders:   orderRepo,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      logger,
	}
	ph.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
