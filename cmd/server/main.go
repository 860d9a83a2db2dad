// Command server runs the x402 donation API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	donation "github.com/tipjar-labs/x402-donation"
	"github.com/tipjar-labs/x402-donation/facilitator"
	"github.com/tipjar-labs/x402-donation/server"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := donation.ConfigFromEnv()

	client := facilitator.NewClient(&facilitator.Config{
		URL:    cfg.FacilitatorURL,
		APIKey: cfg.FacilitatorAPIKey,
	})

	var opts []donation.ExchangeOption
	if cfg.SettlementTTL > 0 {
		opts = append(opts, donation.WithSettlementCache(donation.NewSettlementCache(cfg.SettlementTTL)))
	}
	exchange := donation.NewExchange(client, opts...)

	router := gin.New()
	router.Use(gin.Recovery(), server.RequestID(), server.Logger())
	server.New(exchange).Register(router)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("donation server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
