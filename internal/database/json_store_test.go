package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleCards() []models.Card {
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sale := time.Date(2024, 4, 30, 18, 30, 0, 0, time.UTC)
	return []models.Card{
		{ID: 3, Name: "Charizard", Category: "Fire", MarketPrice: price("120.50"), LastUpdated: updated, Amount: 1},
		{ID: 1, Name: "Squirtle", Category: "Water", LowestPrice: price("0.99"), LatestSalePrice: price("1.05"), LatestSaleDate: &sale, LastUpdated: updated, Amount: 4},
		{ID: 2, Name: "Card #2", LastUpdated: updated, Amount: 2},
	}
}

func TestJSONStoreLoadResilience(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file"},
		{name: "empty file", content: strPtr("")},
		{name: "whitespace only", content: strPtr("  \n\t ")},
		{name: "invalid json", content: strPtr("{not json")},
		{name: "wrong shape", content: strPtr(`{"id": 1}`)},
		{name: "null", content: strPtr("null")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cards.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			cards, err := NewJSONStore(path).LoadAll(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, cards)
			assert.Empty(t, cards)
		})
	}
}

func strPtr(s string) *string { return &s }

func TestJSONStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cards.json")
	s := NewJSONStore(path)

	require.NoError(t, s.SaveAll(ctx, sampleCards()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "[\n  {"), "file should be indented")

	cards, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 3)

	// load order is file order
	assert.Equal(t, []int{3, 1, 2}, []int{cards[0].ID, cards[1].ID, cards[2].ID})
	assert.True(t, price("120.50").Equal(*cards[0].MarketPrice))
	assert.Nil(t, cards[0].LowestPrice)
	require.NotNil(t, cards[1].LatestSaleDate)
	assert.True(t, cards[1].LatestSaleDate.Equal(time.Date(2024, 4, 30, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, 4, cards[1].Amount)
	assert.Nil(t, cards[2].Price())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestJSONStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewJSONStore(filepath.Join(t.TempDir(), "cards.json"))
	require.NoError(t, s.SaveAll(ctx, sampleCards()))

	updated := models.Card{ID: 1, Name: "Squirtle", MarketPrice: price("2.00"), Amount: 4}
	require.NoError(t, s.Upsert(ctx, updated))
	require.NoError(t, s.Upsert(ctx, updated))
	require.NoError(t, s.Upsert(ctx, models.Card{ID: 10, Name: "New", Amount: 1}))

	cards, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 4)
	assert.Equal(t, 1, cards[1].ID)
	assert.True(t, price("2.00").Equal(*cards[1].MarketPrice))
	assert.Equal(t, 10, cards[3].ID)
}

func TestJSONStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewJSONStore(filepath.Join(t.TempDir(), "cards.json"))
	require.NoError(t, s.SaveAll(ctx, sampleCards()))

	require.NoError(t, s.Delete(ctx, 1))
	cards, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	for _, c := range cards {
		assert.NotEqual(t, 1, c.ID)
	}

	require.NoError(t, s.Delete(ctx, 999))
	again, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, cards, again)
}

func TestJSONStoreSaveFailure(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "missing-dir", "cards.json"))

	err := s.SaveAll(context.Background(), sampleCards())
	assert.ErrorIs(t, err, ErrSave)

	err = s.Upsert(context.Background(), models.NewCard(5))
	assert.ErrorIs(t, err, ErrSave)
}

func TestJSONStoreFileMode(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fresh := NewJSONStore(filepath.Join(dir, "new.json"))
	require.NoError(t, fresh.SaveAll(ctx, sampleCards()))
	info, err := os.Stat(fresh.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	path := filepath.Join(dir, "cards.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	require.NoError(t, os.Chmod(path, 0o640))
	existing := NewJSONStore(path)
	require.NoError(t, existing.SaveAll(ctx, sampleCards()))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestJSONStoreLoadsLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	legacy := `[
  {
    "Id": 517045,
    "Name": "Umbreon VMAX",
    "Category": "",
    "MarketPrice": 610.25,
    "LowestPrice": 575,
    "LatestSalePrice": null,
    "LatestSaleDate": null,
    "LastUpdated": "2024-05-01T10:00:00-04:00",
    "CategoryDisplay": "—",
    "Price": 610.25
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	cards, err := NewJSONStore(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, 517045, cards[0].ID)
	assert.Equal(t, "Umbreon VMAX", cards[0].Name)
	assert.Equal(t, 1, cards[0].Amount, "missing amount defaults to one")
	assert.True(t, price("610.25").Equal(*cards[0].Price()))
}
