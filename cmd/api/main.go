package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal/app"
	"folio/internal/config"
	"folio/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	rt, err := app.OpenRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer rt.Close()

	if err := store.ApplyMigrations(ctx, rt.DB, rt.Dialect); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	if rt.Redis != nil {
		log.Printf("Using Redis for the candidate snapshot")
	}
	if rt.Media == nil {
		log.Printf("Image uploads disabled: MINIO_ENDPOINT not set")
	}
	if cfg.AdminToken == "" {
		log.Printf("WARNING: FOLIO_ADMIN_TOKEN not set, owner routes are closed")
	}
	if n := rt.Search.ReindexAll(ctx); n > 0 {
		log.Printf("Indexed %d published articles", n)
	}

	httpServer := app.NewHTTPServer(rt.Service(cfg), cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Folio API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
