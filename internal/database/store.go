package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/mswatii/card-manager/internal/config"
	"github.com/mswatii/card-manager/internal/models"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrLoad means the collection exists but could not be read
	ErrLoad = errors.New("cannot load cards")
	// ErrSave means the collection could not be written; the change is lost
	ErrSave = errors.New("cannot save cards")
)

// Store persists the whole card collection
type Store interface {
	LoadAll(ctx context.Context) ([]models.Card, error)
	SaveAll(ctx context.Context, cards []models.Card) error
	Upsert(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, id int) error
	Close() error
}

// Open returns the store selected by cfg.StoreDriver
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreJSON, "":
		log.Infof("using JSON card store at %s", cfg.CardsFile)
		return NewJSONStore(cfg.CardsFile), nil
	case config.StoreBolt:
		log.Infof("using bolt card store at %s", cfg.BoltFile)
		return NewBoltStore(cfg.BoltFile)
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store needs DATABASE_URL or DB_* variables")
		}
		db, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.CreateTables(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("using postgres card store")
		return db, nil
	default:
		return nil, fmt.Errorf("unknown card store %q", cfg.StoreDriver)
	}
}

// upsertCard replaces the card with the same id or appends it
func upsertCard(cards []models.Card, card models.Card) []models.Card {
	for i := range cards {
		if cards[i].ID == card.ID {
			cards[i] = card
			return cards
		}
	}
	return append(cards, card)
}

// removeCard drops every card with the given id
func removeCard(cards []models.Card, id int) []models.Card {
	kept := cards[:0]
	for _, c := range cards {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return kept
}

func normalizeAll(cards []models.Card) []models.Card {
	for i := range cards {
		cards[i] = cards[i].Normalize()
	}
	return cards
}
