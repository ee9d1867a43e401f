package main

import (
	"fmt"
	"strings"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category <id> [name]",
	Short: "Set the category of a card; omit the name to clear it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		category := ""
		if len(args) == 2 {
			category = strings.TrimSpace(args[1])
		}
		card, err := svc.SetCategory(cmd.Context(), id, category)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: category %s\n", card.Name, categoryLabel(card.Category))
		return nil
	},
}

var amountCmd = &cobra.Command{
	Use:   "amount <id> <quantity>",
	Short: "Set the quantity owned",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		amount, err := models.ParseAmount(args[1])
		if err != nil {
			return err
		}
		card, err := svc.SetAmount(cmd.Context(), id, amount)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated quantity for: %s (x%d)\n", card.Name, card.Amount)
		return nil
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a card from the collection",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return err
		}
		if !deleteYes && !promptConfirm(cmd, fmt.Sprintf("Delete card %d? [y/N]: ", id)) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err := svc.Delete(cmd.Context(), id); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoryCmd, amountCmd, deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation prompt")
}
