package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mswatii/card-manager/internal/models"
	log "github.com/sirupsen/logrus"
)

// JSONStore keeps the collection in a single indented JSON file
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store backed by the file at path. The file does
// not need to exist yet.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file
func (s *JSONStore) Path() string {
	return s.path
}

// LoadAll returns the full collection. A missing, empty or unparsable file
// yields an empty collection.
func (s *JSONStore) LoadAll(ctx context.Context) ([]models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// SaveAll overwrites the file with cards
func (s *JSONStore) SaveAll(ctx context.Context, cards []models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cards)
}

// Upsert replaces the card with the same id, or appends it
func (s *JSONStore) Upsert(ctx context.Context, card models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.load()
	if err != nil {
		return err
	}
	return s.save(upsertCard(cards, card))
}

// Delete removes every card with id. Unknown ids are ignored.
func (s *JSONStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.load()
	if err != nil {
		return err
	}
	return s.save(removeCard(cards, id))
}

// Close is a no-op; the file is only open during reads and writes
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) load() ([]models.Card, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Card{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return []models.Card{}, nil
	}

	var cards []models.Card
	if err := json.Unmarshal(content, &cards); err != nil {
		log.Warnf("cannot parse %s, starting with an empty collection: %v", s.path, err)
		return []models.Card{}, nil
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return normalizeAll(cards), nil
}

// save writes to a temporary file next to the target and renames it over
// the target, so a crash never leaves a half written collection.
func (s *JSONStore) save(cards []models.Card) error {
	if cards == nil {
		cards = []models.Card{}
	}
	content, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := tmp.Chmod(s.fileMode()); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	log.Debugf("saved %d cards to %s", len(cards), s.path)
	return nil
}

// fileMode returns the mode of the existing file, or 0644 for a new one
func (s *JSONStore) fileMode() os.FileMode {
	if info, err := os.Stat(s.path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}
