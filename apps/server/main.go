package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"felt/internal/auth"
	"felt/internal/bots"
	"felt/internal/gateway"
	"felt/internal/lobby"
	"felt/internal/service"
	"felt/internal/wallet"
	"felt/store"
)

func main() {
	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] init auth: %v", err)
	}
	defer authService.Close()

	walletService, walletMode, err := wallet.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] init wallet: %v", err)
	}
	defer walletService.Close()

	tableStore, storeMode, err := store.NewFromEnv()
	if err != nil {
		log.Fatalf("[Server] init store: %v", err)
	}
	defer tableStore.Close()

	svc, err := service.New(tableStore, walletService)
	if err != nil {
		log.Fatalf("[Server] init table service: %v", err)
	}
	lby := lobby.New(svc)
	gw := gateway.New(svc, authService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go svc.RunClock(ctx, gw)
	go bots.NewDriver(svc, bots.Conservative{}).Run(ctx, gw)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	auth.NewHTTPHandler(authService).RegisterRoutes(mux)
	wallet.NewHTTPHandler(authService, walletService).RegisterRoutes(mux)
	lobby.NewHTTPHandler(authService, lby).RegisterRoutes(mux)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{Addr: addr, Handler: mux}

	log.Printf("[Server] Auth mode: %s", authMode)
	log.Printf("[Server] Wallet mode: %s", walletMode)
	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Listening on %s", addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown: %v", err)
	}
}
