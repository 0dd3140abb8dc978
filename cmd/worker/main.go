package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
	"github.com/ariefcatur/go-payment-engine.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-payment-engine.git/internal/kafka"
	"github.com/ariefcatur/go-payment-engine.git/internal/notify"
	"github.com/ariefcatur/go-payment-engine.git/internal/outbox"
	"github.com/ariefcatur/go-payment-engine.git/internal/postgres"
	"github.com/ariefcatur/go-payment-engine.git/internal/redisx"
)

// Worker process: outbox dispatcher + reservation sweeper + notifier.
// Ketiganya share satu pool DB dan mati bareng via errgroup.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer outbound (best-effort, bukan event finansial)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, commerce.TopicNotificationOutbound, 1024)
	prod.Start(ctx)

	writer := kafkax.NewSyncWriter(cfg.KafkaBrokers)
	defer writer.Close()

	dispatcher := &outbox.Dispatcher{
		DB:           db,
		Writer:       writer,
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	}
	inv := &inventory.Manager{DB: db}
	svc := &notify.Service{
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-worker",
	}

	group := getenv("NOTIFY_GROUP", "payment-notify")
	workers := mustAtoi(os.Getenv("NOTIFY_WORKERS"), "8")
	topics := []string{commerce.TopicPaymentCompleted, commerce.TopicPaymentFailed, commerce.TopicPaymentRefunded}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topics, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("outbox dispatcher started: poll=%s batch=%d", cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		log.Printf("reservation sweeper started: interval=%s", cfg.SweepInterval)
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-t.C:
				n, err := inv.SweepExpired(gctx, now.UTC())
				if err != nil {
					log.Printf("sweep: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("sweep: expired %d reservation(s)", n)
				}
			}
		}
	})

	g.Go(func() error {
		log.Printf("notify consumer started: group=%s topics=%v workers=%d", group, topics, workers)
		return cons.Start(gctx, svc.HandlePaymentEvent)
	})

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-gctx.Done():
	case <-sig:
	}
	log.Println("shutting down worker...")
	cancel()
	if err := g.Wait(); err != nil {
		log.Printf("worker exit: %v", err)
	}
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
