package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductPageURL is the public marketplace page for a product id
const ProductPageURL = "https://www.tcgplayer.com/product/%d?Language=English"

// ErrInvalidInput is returned when a caller supplies an identifier or quantity
// that cannot be used.
var ErrInvalidInput = errors.New("invalid input")

// Card represents one tracked marketplace product together with the user's
// annotations (category and quantity owned).
//
// Name, the price fields and LastUpdated are owned by the price source.
// Category and Amount are owned by the user and survive refreshes.
type Card struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	MarketPrice     *decimal.Decimal `json:"marketPrice,omitempty"`
	LowestPrice     *decimal.Decimal `json:"lowestPrice,omitempty"`
	LatestSalePrice *decimal.Decimal `json:"latestSalePrice,omitempty"`
	LatestSaleDate  *time.Time       `json:"latestSaleDate,omitempty"`
	LastUpdated     time.Time        `json:"lastUpdated"`
	Amount          int              `json:"amount"`
}

// NewCard returns a card with the placeholder name and a quantity of one
func NewCard(id int) Card {
	return Card{
		ID:     id,
		Name:   PlaceholderName(id),
		Amount: 1,
	}
}

// PlaceholderName is the display name used when the provider has none
func PlaceholderName(id int) string {
	return fmt.Sprintf("Card #%d", id)
}

// Price returns the market price, or the lowest listed price when no market
// price is known. Nil means unknown.
func (c Card) Price() *decimal.Decimal {
	if c.MarketPrice != nil {
		return c.MarketPrice
	}
	return c.LowestPrice
}

// TotalValue returns Price multiplied by Amount, or nil when the price is unknown
func (c Card) TotalValue() *decimal.Decimal {
	price := c.Price()
	if price == nil {
		return nil
	}
	total := price.Mul(decimal.NewFromInt(int64(c.Amount)))
	return &total
}

// ProductURL returns the marketplace page of the card
func (c Card) ProductURL() string {
	return fmt.Sprintf(ProductPageURL, c.ID)
}

// Merge returns fresh with the user-owned fields (Category, Amount) taken from old.
func Merge(old, fresh Card) Card {
	fresh.Category = old.Category
	fresh.Amount = old.Amount
	if fresh.Amount < 1 {
		fresh.Amount = 1
	}
	return fresh
}

// Normalize fixes values that cannot come from a valid record, such as a
// zero quantity left by an older file without the amount field.
func (c Card) Normalize() Card {
	if c.Amount < 1 {
		c.Amount = 1
	}
	if c.Name == "" {
		c.Name = PlaceholderName(c.ID)
	}
	return c
}

// ParseID parses a product identifier typed by a user
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: card id %q must be a positive number", ErrInvalidInput, s)
	}
	return id, nil
}

// ParseAmount parses a quantity typed by a user
func ParseAmount(s string) (int, error) {
	amount, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not a number", ErrInvalidInput, s)
	}
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// ValidateAmount checks the quantity invariant (at least one owned)
func ValidateAmount(amount int) error {
	if amount < 1 {
		return fmt.Errorf("%w: quantity must be 1 or more, got %d", ErrInvalidInput, amount)
	}
	return nil
}
