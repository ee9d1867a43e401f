package main

import (
	"errors"
	"fmt"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/mswatii/card-manager/internal/service"
	"github.com/spf13/cobra"
)

var (
	addYes      bool
	addCategory string
	addAmount   string
)

var addCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a card by its TCGplayer product id",
	Long: `Fetch a card from TCGplayer and add it to the collection.
If the card is already tracked its prices are refreshed after confirmation,
keeping its category and quantity unless --category or --amount is given.
New cards start with a quantity of one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		opts := service.AddOptions{Category: addCategory}
		if cmd.Flags().Changed("amount") {
			if opts.Amount, err = models.ParseAmount(addAmount); err != nil {
				return err
			}
		}

		if _, err := svc.Get(cmd.Context(), id); err == nil && !addYes {
			if !promptConfirm(cmd, fmt.Sprintf("Card %d already exists. Refresh its data? [y/N]: ", id)) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		} else if err != nil && !errors.Is(err, service.ErrNotFound) {
			return err
		}

		card, err := svc.AddOrRefresh(cmd.Context(), id, opts)
		if errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("could not fetch card %d, check the id and try again", id)
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added: %s (x%d) %s\n", card.Name, card.Amount, formatMoney(card.Price()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().BoolVarP(&addYes, "yes", "y", false, "Skip confirmation prompt")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category for the card")
	addCmd.Flags().StringVarP(&addAmount, "amount", "n", "", "Quantity owned (default 1 for new cards)")
}
