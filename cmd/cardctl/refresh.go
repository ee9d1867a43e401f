package main

import (
	"errors"
	"fmt"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/mswatii/card-manager/internal/service"
	"github.com/spf13/cobra"
)

var refreshAll bool

var refreshCmd = &cobra.Command{
	Use:   "refresh [id]",
	Short: "Refresh prices for one card, or all with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if refreshAll || len(args) == 0 {
			cards, err := svc.RefreshAll(cmd.Context(), func(current, total int) {
				_, _ = fmt.Fprintf(out, "\rRefreshing %d/%d", current, total)
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "\nRefreshed %d cards\n", len(cards))
			return nil
		}

		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		card, err := svc.RefreshOne(cmd.Context(), id)
		if errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("could not refresh card %d, previous data kept", id)
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Refreshed: %s %s\n", card.Name, formatMoney(card.Price()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVarP(&refreshAll, "all", "a", false, "Refresh every card")
}
