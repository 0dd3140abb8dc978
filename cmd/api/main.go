package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/config"
	"github.com/ariefcatur/go-payment-engine.git/internal/gateway"
	"github.com/ariefcatur/go-payment-engine.git/internal/httpx"
	"github.com/ariefcatur/go-payment-engine.git/internal/inventory"
	"github.com/ariefcatur/go-payment-engine.git/internal/payments"
	"github.com/ariefcatur/go-payment-engine.git/internal/postgres"
	"github.com/ariefcatur/go-payment-engine.git/internal/redisx"
	"github.com/ariefcatur/go-payment-engine.git/internal/signature"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Gateway registry + verifier
	registry := gateway.NewRegistry(cfg.Providers)
	secrets := map[commerce.Provider]string{}
	for p, pc := range cfg.Providers {
		secrets[p] = pc.WebhookSecret
	}
	allowUnsigned := cfg.AllowUnsignedWebhooks && !cfg.IsProduction()
	verifier := signature.NewVerifier(secrets, allowUnsigned)

	// Engine
	engine := &payments.Engine{
		DB:             db,
		Redis:          rdb,
		Gateways:       registry,
		Inventory:      &inventory.Manager{DB: db},
		Service:        cfg.ServiceName,
		ReservationTTL: cfg.ReservationTTL,
	}

	// Router & handlers
	router := httpx.NewRouter()
	wh := &httpx.WebhooksHandler{Engine: engine, Verifier: verifier, Gateways: registry}
	wh.Register(router)
	ph := &httpx.PaymentsHandler{Engine: engine}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
}
