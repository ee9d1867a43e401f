package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mswatii/card-manager/internal/api"
	"github.com/mswatii/card-manager/internal/config"
	"github.com/mswatii/card-manager/internal/database"
	"github.com/mswatii/card-manager/internal/scraper"
	"github.com/mswatii/card-manager/internal/service"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

func main() {
	// Load environment variables from .env file
	config.LoadEnv()
	cfg := config.Load()
	config.Logging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open card store: %v", err)
	}
	defer store.Close()

	svc := service.NewCardSyncService(store, scraper.NewFromConfig(cfg), cfg.RefreshWorkers)
	handler := api.NewHandler(ctx, svc)

	// Refresh the whole collection on startup unless told not to
	if !cfg.SkipInitialRefresh {
		log.Println("Starting initial refresh...")
		go func() {
			cards, err := svc.RefreshAll(ctx, func(current, total int) {
				log.Debugf("initial refresh %d/%d", current, total)
			})
			if err != nil {
				log.Errorf("Error during initial refresh: %v", err)
				return
			}
			log.Infof("Initial refresh completed: %d cards", len(cards))
		}()
	}

	server := &fasthttp.Server{
		Handler: api.RequestLogger(handler.HandleRequest),
		Name:    "card-manager",
	}
	go func() {
		<-ctx.Done()
		log.Info("Shutting down server")
		if err := server.Shutdown(); err != nil {
			log.Errorf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on port %s", cfg.Port)
	if err := server.ListenAndServe(":" + cfg.Port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
