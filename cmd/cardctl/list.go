package main

import (
	"fmt"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/spf13/cobra"
)

var (
	listCategory string
	listSearch   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked cards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cards, err := svc.List(cmd.Context(), models.Filter{Category: listCategory, Query: listSearch})
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No cards.")
			return nil
		}
		return printCards(cmd.OutOrStdout(), cards)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := svc.ListCategories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range categories {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show collection totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := svc.Summary(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Cards:       %d\n", s.Cards)
		_, _ = fmt.Fprintf(out, "Quantity:    %d\n", s.Quantity)
		_, _ = fmt.Fprintf(out, "Total value: %s\n", formatMoney(&s.TotalValue))
		if s.Unpriced > 0 {
			_, _ = fmt.Fprintf(out, "Unpriced:    %d\n", s.Unpriced)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, categoriesCmd, summaryCmd)
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only show cards in this category")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only show cards whose name, id or category contains this text")
}
