package main

import (
	"context"
	"os"

	"github.com/mswatii/card-manager/internal/config"
	"github.com/mswatii/card-manager/internal/database"
	"github.com/mswatii/card-manager/internal/scraper"
	"github.com/mswatii/card-manager/internal/service"
	"github.com/spf13/cobra"
)

var (
	store database.Store
	svc   *service.CardSyncService
)

var rootCmd = &cobra.Command{
	Use:   "cardctl",
	Short: "Track a card collection and its marketplace prices",
	Long: `cardctl keeps a local collection of marketplace cards, each with a quantity
and an optional category, and refreshes names and prices from TCGplayer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()
		cfg := config.Load()
		config.Logging(cfg.LogLevel)

		var err error
		store, err = database.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		svc = service.NewCardSyncService(store, scraper.NewFromConfig(cfg), cfg.RefreshWorkers)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store == nil {
			return nil
		}
		return store.Close()
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
