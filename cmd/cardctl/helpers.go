package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// promptConfirm asks the user for confirmation and returns true if they confirm
func promptConfirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)

	var response string
	_, _ = fmt.Fscanln(cmd.InOrStdin(), &response)

	return response == "y" || response == "Y"
}

func formatMoney(d *decimal.Decimal) string {
	if d == nil {
		return "N/A"
	}
	return "$" + d.StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("01/02/06 3:04 PM")
}

func categoryLabel(c string) string {
	if c == "" {
		return "-"
	}
	return c
}

func printCards(w io.Writer, cards []models.Card) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQTY\tPRICE\tTOTAL\tLAST SALE\tSOLD\tUPDATED")
	for _, c := range cards {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.Name,
			categoryLabel(c.Category),
			c.Amount,
			formatMoney(c.Price()),
			formatMoney(c.TotalValue()),
			formatMoney(c.LatestSalePrice),
			formatDate(c.LatestSaleDate),
			c.LastUpdated.Format("01/02 3:04 PM"),
		)
	}
	total := models.Summarize(cards).TotalValue
	_, _ = fmt.Fprintf(tw, "\t\t\t\t\t%s\t\t\t\n", formatMoney(&total))
	return tw.Flush()
}
