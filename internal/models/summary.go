package models

import (
	"github.com/shopspring/decimal"
)

// Summary holds collection-wide totals
type Summary struct {
	Cards      int             `json:"cards"`      // Distinct tracked cards
	Quantity   int             `json:"quantity"`   // Sum of amounts
	TotalValue decimal.Decimal `json:"totalValue"` // Sum of known total values
	Unpriced   int             `json:"unpriced"`   // Cards with no known price
}

// Summarize computes the totals of a collection. Cards without a price are
// counted in Unpriced and left out of TotalValue.
func Summarize(cards []Card) Summary {
	s := Summary{TotalValue: decimal.Zero}
	for _, c := range cards {
		s.Cards++
		s.Quantity += c.Amount
		if total := c.TotalValue(); total != nil {
			s.TotalValue = s.TotalValue.Add(*total)
		} else {
			s.Unpriced++
		}
	}
	return s
}
