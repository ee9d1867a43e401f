package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mswatii/card-manager/internal/models"
	"github.com/shopspring/decimal"
)

// PostgresStore keeps the collection in a postgres table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new database connection
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection
func (db *PostgresStore) Close() error {
	db.pool.Close()
	return nil
}

// CreateTables creates the cards table if it doesn't exist
func (db *PostgresStore) CreateTables(ctx context.Context) error {
	// seq keeps insertion order so loads come back in the order cards were added
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cards (
			id INTEGER PRIMARY KEY,
			seq BIGSERIAL NOT NULL,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(255) NOT NULL DEFAULT '',
			market_price NUMERIC,
			lowest_price NUMERIC,
			latest_sale_price NUMERIC,
			latest_sale_date TIMESTAMPTZ,
			last_updated TIMESTAMPTZ NOT NULL,
			amount INTEGER NOT NULL DEFAULT 1 CHECK (amount >= 1)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating cards table: %w", err)
	}
	return nil
}

const selectCards = `
	SELECT id, name, category, market_price, lowest_price,
	       latest_sale_price, latest_sale_date, last_updated, amount
	FROM cards ORDER BY seq
`

const upsertCardSQL = `
	INSERT INTO cards (
		id, name, category, market_price, lowest_price,
		latest_sale_price, latest_sale_date, last_updated, amount
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id)
	DO UPDATE SET
		name = $2,
		category = $3,
		market_price = $4,
		lowest_price = $5,
		latest_sale_price = $6,
		latest_sale_date = $7,
		last_updated = $8,
		amount = $9
`

// LoadAll retrieves every card in insertion order
func (db *PostgresStore) LoadAll(ctx context.Context) ([]models.Card, error) {
	rows, err := db.pool.Query(ctx, selectCards)
	if err != nil {
		return nil, fmt.Errorf("%w: error querying cards: %w", ErrLoad, err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var (
			c                        models.Card
			market, lowest, lastSale decimal.NullDecimal
			saleDate                 *time.Time
		)
		err := rows.Scan(
			&c.ID, &c.Name, &c.Category, &market, &lowest,
			&lastSale, &saleDate, &c.LastUpdated, &c.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: error scanning row: %w", ErrLoad, err)
		}
		c.MarketPrice = fromNull(market)
		c.LowestPrice = fromNull(lowest)
		c.LatestSalePrice = fromNull(lastSale)
		c.LatestSaleDate = saleDate
		cards = append(cards, c.Normalize())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %w", ErrLoad, err)
	}
	return cards, nil
}

// Upsert inserts a card or updates the row with the same id
func (db *PostgresStore) Upsert(ctx context.Context, card models.Card) error {
	if _, err := db.pool.Exec(ctx, upsertCardSQL, cardArgs(card)...); err != nil {
		return fmt.Errorf("%w: error upserting card %d: %w", ErrSave, card.ID, err)
	}
	return nil
}

// SaveAll replaces the table content in a single transaction
func (db *PostgresStore) SaveAll(ctx context.Context, cards []models.Card) error {
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cards`); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, c := range cards {
			batch.Queue(upsertCardSQL, cardArgs(c)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

// Delete removes the card with id, if any
func (db *PostgresStore) Delete(ctx context.Context, id int) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: error deleting card %d: %w", ErrSave, id, err)
	}
	return nil
}

func cardArgs(c models.Card) []any {
	return []any{
		c.ID, c.Name, c.Category, toNull(c.MarketPrice), toNull(c.LowestPrice),
		toNull(c.LatestSalePrice), c.LatestSaleDate, c.LastUpdated, c.Amount,
	}
}

func toNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
