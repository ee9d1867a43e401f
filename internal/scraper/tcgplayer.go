package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mswatii/card-manager/internal/config"
	"github.com/mswatii/card-manager/internal/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.5"
)

// ErrFetch is returned when the marketplace could not be reached at all
var ErrFetch = errors.New("cannot fetch card")

// Options configures a TCGPlayerScraper. Zero values fall back to the
// public endpoints and a 30 second timeout.
type Options struct {
	DetailsURL string // format string taking the product id
	SalesURL   string // format string taking the product id
	Timeout    time.Duration
	Client     *fasthttp.Client
}

// TCGPlayerScraper reads names and prices from the TCGplayer marketplace.
// It keeps no state between calls and never retries.
type TCGPlayerScraper struct {
	client     *fasthttp.Client
	detailsURL string
	salesURL   string
	timeout    time.Duration
}

// NewTCGPlayerScraper creates a scraper
func NewTCGPlayerScraper(opts Options) *TCGPlayerScraper {
	s := &TCGPlayerScraper{
		client:     opts.Client,
		detailsURL: opts.DetailsURL,
		salesURL:   opts.SalesURL,
		timeout:    opts.Timeout,
	}
	if s.detailsURL == "" {
		s.detailsURL = config.DefaultDetailsURL
	}
	if s.salesURL == "" {
		s.salesURL = config.DefaultSalesURL
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultFetchTimeout
	}
	if s.client == nil {
		s.client = &fasthttp.Client{
			ReadTimeout:  s.timeout,
			WriteTimeout: s.timeout,
		}
	}
	return s
}

// NewFromConfig creates a scraper from the application configuration
func NewFromConfig(cfg config.Config) *TCGPlayerScraper {
	return NewTCGPlayerScraper(Options{
		DetailsURL: cfg.DetailsURL,
		SalesURL:   cfg.SalesURL,
		Timeout:    cfg.FetchTimeout,
	})
}

// Fetch returns a card populated with the latest name and prices for id.
//
// An error is returned only when the details endpoint cannot be reached
// (connection failure, timeout, cancelled context). Bad statuses and
// malformed payloads leave the affected fields unset instead. The returned
// card has no category and an amount of one.
func (s *TCGPlayerScraper) Fetch(ctx context.Context, id int) (models.Card, error) {
	card := models.Card{
		ID:          id,
		Amount:      1,
		LastUpdated: time.Now(),
	}

	if err := s.fetchProductDetails(ctx, &card); err != nil {
		return models.Card{}, fmt.Errorf("%w %d: %w", ErrFetch, id, err)
	}
	s.fetchLatestSales(ctx, &card)

	return card, nil
}

// fetchProductDetails fills Name, MarketPrice and LowestPrice
func (s *TCGPlayerScraper) fetchProductDetails(ctx context.Context, card *models.Card) error {
	card.Name = models.PlaceholderName(card.ID)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf(s.detailsURL, card.ID))
	req.Header.SetMethod(fasthttp.MethodGet)
	setHeaders(req)

	if err := s.do(ctx, req, resp); err != nil {
		return err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		log.Warnf("details for card %d returned status %d", card.ID, resp.StatusCode())
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &fields); err != nil {
		log.Warnf("failed to parse details for card %d: %v", card.ID, err)
		return nil
	}

	if name := stringField(fields, "productName"); name != "" {
		card.Name = name
	}
	card.MarketPrice = decimalField(fields, "marketPrice")
	card.LowestPrice = decimalField(fields, "lowestPrice")
	return nil
}

// fetchLatestSales fills LatestSalePrice and LatestSaleDate from the most
// recent sale. Any failure leaves both unset.
func (s *TCGPlayerScraper) fetchLatestSales(ctx context.Context, card *models.Card) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	// the endpoint rejects requests without a body
	req.SetRequestURI(fmt.Sprintf(s.salesURL, card.ID))
	req.Header.SetMethod(fasthttp.MethodPost)
	setHeaders(req)
	req.Header.SetContentType("application/json")
	req.SetBodyString("{}")

	if err := s.do(ctx, req, resp); err != nil {
		log.Warnf("latest sales request for card %d failed: %v", card.ID, err)
		return
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		log.Warnf("latest sales for card %d returned status %d", card.ID, resp.StatusCode())
		return
	}

	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		log.Warnf("failed to parse latest sales for card %d: %v", card.ID, err)
		return
	}
	if len(payload.Data) == 0 {
		return
	}

	// the provider lists the most recent sale first
	var sale map[string]json.RawMessage
	if err := json.Unmarshal(payload.Data[0], &sale); err != nil {
		log.Warnf("unexpected sale entry for card %d: %v", card.ID, err)
		return
	}

	card.LatestSalePrice = decimalField(sale, "purchasePrice")
	if orderDate, ok := parseOrderDate(stringField(sale, "orderDate")); ok {
		card.LatestSaleDate = &orderDate
	}
}

func (s *TCGPlayerScraper) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URI().Host(), err)
	}
	log.Debugf("%s %s %d %s", req.Header.Method(), req.URI().String(), resp.StatusCode(), time.Since(start))
	return nil
}

func setHeaders(req *fasthttp.Request) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", AcceptLanguage)
}

// stringField returns the string at key, or "" when absent or not a string
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// decimalField returns the number at key, or nil when absent, null or not a number
func decimalField(fields map[string]json.RawMessage, key string) *decimal.Decimal {
	raw := bytes.TrimSpace(fields[key])
	if len(raw) == 0 || !strings.ContainsRune("-0123456789", rune(raw[0])) {
		return nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return nil
	}
	return &d
}

var orderDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseOrderDate parses the provider's order date. Dates without a zone are
// taken as UTC. The result is in local time.
func parseOrderDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Local(), true
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Local(), true
		}
	}
	return time.Time{}, false
}
