package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mswatii/card-manager/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a card is not in the collection, or when the
// marketplace could not produce data for it.
var ErrNotFound = errors.New("card not found")

// CardStore persists the full collection
type CardStore interface {
	LoadAll(ctx context.Context) ([]models.Card, error)
	SaveAll(ctx context.Context, cards []models.Card) error
	Upsert(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, id int) error
}

// PriceSource fetches the current name and prices of a card
type PriceSource interface {
	Fetch(ctx context.Context, id int) (models.Card, error)
}

// ProgressFunc is called after each card of a bulk refresh
type ProgressFunc func(current, total int)

// AddOptions are the user-owned fields to set when adding a card.
// Zero values mean "not supplied".
type AddOptions struct {
	Category string
	Amount   int
}

// CardSyncService keeps the stored collection in line with the marketplace
// while preserving the fields the user owns.
//
// Every load-modify-save sequence runs under a single mutex so concurrent
// callers never lose each other's writes. Remote fetches and reads happen
// outside it; the stores synchronize their own access.
type CardSyncService struct {
	store   CardStore
	source  PriceSource
	workers int

	mu sync.Mutex
}

// NewCardSyncService creates the service. workers bounds the number of
// concurrent fetches in RefreshAll; values below one mean sequential.
func NewCardSyncService(store CardStore, source PriceSource, workers int) *CardSyncService {
	if workers < 1 {
		workers = 1
	}
	return &CardSyncService{
		store:   store,
		source:  source,
		workers: workers,
	}
}

// LoadAll returns the whole collection in store order
func (s *CardSyncService) LoadAll(ctx context.Context) ([]models.Card, error) {
	return s.store.LoadAll(ctx)
}

// List returns the cards that pass filter, in store order
func (s *CardSyncService) List(ctx context.Context, filter models.Filter) ([]models.Card, error) {
	cards, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(cards), nil
}

// Get returns a single card
func (s *CardSyncService) Get(ctx context.Context, id int) (models.Card, error) {
	cards, err := s.LoadAll(ctx)
	if err != nil {
		return models.Card{}, err
	}
	if i := indexOf(cards, id); i >= 0 {
		return cards[i], nil
	}
	return models.Card{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// fetch wraps a source failure in ErrNotFound. A cancelled or expired ctx
// is returned as is.
func (s *CardSyncService) fetch(ctx context.Context, id int) (models.Card, error) {
	fresh, err := s.source.Fetch(ctx, id)
	if err == nil {
		return fresh, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.Card{}, ctxErr
	}
	log.Warnf("could not fetch card %d: %v", id, err)
	return models.Card{}, fmt.Errorf("%w: %w", ErrNotFound, err)
}

// AddOrRefresh fetches id and stores it. An existing card keeps its
// category and amount unless opts overrides them. When the fetch fails the
// store is left untouched and ErrNotFound is returned.
func (s *CardSyncService) AddOrRefresh(ctx context.Context, id int, opts AddOptions) (models.Card, error) {
	if opts.Amount != 0 {
		if err := models.ValidateAmount(opts.Amount); err != nil {
			return models.Card{}, err
		}
	}

	fresh, err := s.fetch(ctx, id)
	if err != nil {
		return models.Card{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Card{}, err
	}

	card := models.Merge(models.NewCard(id), fresh)
	if i := indexOf(cards, id); i >= 0 {
		card = models.Merge(cards[i], fresh)
	}
	if opts.Category != "" {
		card.Category = opts.Category
	}
	if opts.Amount != 0 {
		card.Amount = opts.Amount
	}

	if err := s.store.Upsert(ctx, card); err != nil {
		return models.Card{}, err
	}
	log.Infof("added card %d %q (x%d)", card.ID, card.Name, card.Amount)
	return card, nil
}

// RefreshOne re-fetches a single card, keeping its category and amount.
// An unknown id is added with defaults. When the fetch fails the store is
// left untouched and ErrNotFound is returned.
func (s *CardSyncService) RefreshOne(ctx context.Context, id int) (models.Card, error) {
	fresh, err := s.fetch(ctx, id)
	if err != nil {
		return models.Card{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Card{}, err
	}
	existing := models.NewCard(id)
	if i := indexOf(cards, id); i >= 0 {
		existing = cards[i]
	}

	card := models.Merge(existing, fresh)
	if err := s.store.Upsert(ctx, card); err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// RefreshAll re-fetches every card and saves the collection once at the end.
//
// Fetches run without holding the write lock. The results are merged by id
// onto the collection as it stands when they are all in, so edits, adds and
// deletes made meanwhile are kept. A card whose fetch fails is kept
// unchanged. progress, if not nil, is called once per fetched card with a
// strictly increasing count. If ctx is cancelled nothing is saved.
func (s *CardSyncService) RefreshAll(ctx context.Context, progress ProgressFunc) ([]models.Card, error) {
	cards, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	total := len(cards)
	fetched := make([]*models.Card, total)
	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, old := range cards {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fresh, err := s.source.Fetch(gctx, old.ID)
			if err == nil {
				fetched[i] = &fresh
			} else {
				log.Warnf("keeping previous data for card %d: %v", old.ID, err)
			}

			progressMu.Lock()
			defer progressMu.Unlock()
			done++
			if progress != nil {
				progress(done, total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byID := make(map[int]models.Card, total)
	for i, f := range fetched {
		if f != nil {
			byID[cards[i].ID] = *f
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i, c := range current {
		if fresh, ok := byID[c.ID]; ok {
			current[i] = models.Merge(c, fresh)
		}
	}

	if err := s.store.SaveAll(ctx, current); err != nil {
		return nil, err
	}
	log.Infof("refreshed %d of %d cards", len(byID), total)
	return current, nil
}

// SetCategory changes the category of a card. An empty category clears it.
func (s *CardSyncService) SetCategory(ctx context.Context, id int, category string) (models.Card, error) {
	return s.update(ctx, id, func(c *models.Card) {
		c.Category = category
	})
}

// SetAmount changes the quantity owned. amount must be at least one.
func (s *CardSyncService) SetAmount(ctx context.Context, id int, amount int) (models.Card, error) {
	if err := models.ValidateAmount(amount); err != nil {
		return models.Card{}, err
	}
	return s.update(ctx, id, func(c *models.Card) {
		c.Amount = amount
	})
}

// update applies fn to card id and saves the collection. The store is not
// written when the card is absent.
func (s *CardSyncService) update(ctx context.Context, id int, fn func(*models.Card)) (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Card{}, err
	}
	i := indexOf(cards, id)
	if i < 0 {
		return models.Card{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	fn(&cards[i])
	if err := s.store.SaveAll(ctx, cards); err != nil {
		return models.Card{}, err
	}
	return cards[i], nil
}

// ListCategories returns the distinct non-empty categories in ascending order
func (s *CardSyncService) ListCategories(ctx context.Context) ([]string, error) {
	cards, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	categories := []string{}
	for _, c := range cards {
		if c.Category == "" || seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		categories = append(categories, c.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// Delete removes a card. Unknown ids are ignored.
func (s *CardSyncService) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, id)
}

// Summary returns the collection totals
func (s *CardSyncService) Summary(ctx context.Context) (models.Summary, error) {
	cards, err := s.LoadAll(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(cards), nil
}

func indexOf(cards []models.Card, id int) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}
