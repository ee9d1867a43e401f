package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mswatii/card-manager/internal/models"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var cardsBucket = []byte("cards")

// BoltStore keeps the collection in a single bbolt file, one key per card.
// Cards are returned in ascending id order.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the bolt file at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open bolt file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cardsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating cards bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the bolt file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// LoadAll returns every card. Entries that cannot be decoded are skipped.
func (s *BoltStore) LoadAll(ctx context.Context) ([]models.Card, error) {
	cards := []models.Card{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(cardsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var c models.Card
			if err := json.Unmarshal(v, &c); err != nil {
				log.Warnf("skipping unreadable card entry %x: %v", k, err)
				return nil
			}
			cards = append(cards, c.Normalize())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return cards, nil
}

// SaveAll replaces the bucket content with cards
func (s *BoltStore) SaveAll(ctx context.Context, cards []models.Card) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(cardsBucket) != nil {
			if err := tx.DeleteBucket(cardsBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(cardsBucket)
		if err != nil {
			return err
		}
		for _, c := range cards {
			if err := putCard(b, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

// Upsert writes a single card
func (s *BoltStore) Upsert(ctx context.Context, card models.Card) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(cardsBucket)
		if err != nil {
			return err
		}
		return putCard(b, card)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

// Delete removes the card with id, if any
func (s *BoltStore) Delete(ctx context.Context, id int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(cardsBucket)
		if b == nil {
			return nil
		}
		return b.Delete(cardKey(id))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

func putCard(b *bolt.Bucket, c models.Card) error {
	v, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.Put(cardKey(c.ID), v)
}

// cardKey encodes id big-endian so keys sort numerically
func cardKey(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
