package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mswatii/card-manager/internal/models"
	"github.com/mswatii/card-manager/internal/service"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const cardsPrefix = "/api/cards/"

// Handler represents the API handler
type Handler struct {
	ctx     context.Context
	svc     *service.CardSyncService
	refresh *refreshTracker
}

// NewHandler creates a new API handler. ctx bounds every service call and is
// usually cancelled on shutdown.
func NewHandler(ctx context.Context, svc *service.CardSyncService) *Handler {
	return &Handler{
		ctx:     ctx,
		svc:     svc,
		refresh: &refreshTracker{},
	}
}

// CardView is a card with its derived values, as returned by the API
type CardView struct {
	models.Card
	CurrentPrice *decimal.Decimal `json:"price,omitempty"`
	Total        *decimal.Decimal `json:"totalValue,omitempty"`
	ProductURL   string           `json:"productUrl"`
}

func newCardView(c models.Card) CardView {
	return CardView{
		Card:         c,
		CurrentPrice: c.Price(),
		Total:        c.TotalValue(),
		ProductURL:   c.ProductURL(),
	}
}

func newCardViews(cards []models.Card) []CardView {
	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, newCardView(c))
	}
	return views
}

// HandleRequest routes a request to its handler
func (h *Handler) HandleRequest(ctx *fasthttp.RequestCtx) {
	path := strings.TrimSuffix(string(ctx.Path()), "/")
	method := string(ctx.Method())

	switch {
	case path == "/api/health":
		h.handleHealth(ctx)
	case path == "/api/cards" && method == fasthttp.MethodGet:
		h.handleList(ctx)
	case strings.HasPrefix(path, cardsPrefix):
		h.routeCard(ctx, method, strings.TrimPrefix(path, cardsPrefix))
	case path == "/api/refresh" && method == fasthttp.MethodPost:
		h.handleRefreshAll(ctx)
	case path == "/api/refresh/status" && method == fasthttp.MethodGet:
		writeJSON(ctx, fasthttp.StatusOK, h.refresh.snapshot())
	case path == "/api/categories" && method == fasthttp.MethodGet:
		h.handleCategories(ctx)
	case path == "/api/summary" && method == fasthttp.MethodGet:
		h.handleSummary(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("Not Found")
	}
}

// routeCard handles /api/cards/{id}[/action]
func (h *Handler) routeCard(ctx *fasthttp.RequestCtx, method, rest string) {
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := models.ParseID(idPart)
	if err != nil {
		writeError(ctx, err)
		return
	}

	switch {
	case action == "" && method == fasthttp.MethodGet:
		h.handleGet(ctx, id)
	case action == "" && method == fasthttp.MethodPost:
		h.handleAdd(ctx, id)
	case action == "" && method == fasthttp.MethodDelete:
		h.handleDelete(ctx, id)
	case action == "refresh" && method == fasthttp.MethodPost:
		h.handleRefreshOne(ctx, id)
	case action == "category" && method == fasthttp.MethodPut:
		h.handleSetCategory(ctx, id)
	case action == "amount" && method == fasthttp.MethodPut:
		h.handleSetAmount(ctx, id)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("Not Found")
	}
}

// handleHealth handles the health check endpoint
func (h *Handler) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleList(ctx *fasthttp.RequestCtx) {
	filter := models.Filter{
		Category: string(ctx.QueryArgs().Peek("category")),
		Query:    string(ctx.QueryArgs().Peek("q")),
	}
	cards, err := h.svc.List(h.ctx, filter)
	if err != nil {
		writeError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"cards": newCardViews(cards),
		"count": len(cards),
	})
}

func (h *Handler) handleGet(ctx *fasthttp.RequestCtx, id int) {
	card, err := h.svc.Get(h.ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, newCardView(card))
}

type addRequest struct {
	Category string `json:"category"`
	Amount   int    `json:"amount"`
}

func (h *Handler) handleAdd(ctx *fasthttp.RequestCtx, id int) {
	var req addRequest
	if err := decodeBody(ctx, &req, true); err != nil {
		writeError(ctx, err)
		return
	}

	card, err := h.svc.AddOrRefresh(h.ctx, id, service.AddOptions{
		Category: strings.TrimSpace(req.Category),
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, newCardView(card))
}

func (h *Handler) handleRefreshOne(ctx *fasthttp.RequestCtx, id int) {
	card, err := h.svc.RefreshOne(h.ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, newCardView(card))
}

func (h *Handler) handleSetCategory(ctx *fasthttp.RequestCtx, id int) {
	var req struct {
		Category string `json:"category"`
	}
	if err := decodeBody(ctx, &req, false); err != nil {
		writeError(ctx, err)
		return
	}

	card, err := h.svc.SetCategory(h.ctx, id, strings.TrimSpace(req.Category))
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, newCardView(card))
}

func (h *Handler) handleSetAmount(ctx *fasthttp.RequestCtx, id int) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := decodeBody(ctx, &req, false); err != nil {
		writeError(ctx, err)
		return
	}

	card, err := h.svc.SetAmount(h.ctx, id, req.Amount)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, newCardView(card))
}

func (h *Handler) handleDelete(ctx *fasthttp.RequestCtx, id int) {
	if err := h.svc.Delete(h.ctx, id); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

// handleRefreshAll refreshes the whole collection before responding
func (h *Handler) handleRefreshAll(ctx *fasthttp.RequestCtx) {
	if !h.refresh.start() {
		ctx.SetStatusCode(fasthttp.StatusConflict)
		ctx.SetBodyString("A refresh is already running")
		return
	}

	cards, err := h.svc.RefreshAll(h.ctx, h.refresh.report)
	h.refresh.finish(err)
	if err != nil {
		writeError(ctx, err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"cards": newCardViews(cards),
		"count": len(cards),
	})
}

func (h *Handler) handleCategories(ctx *fasthttp.RequestCtx) {
	categories, err := h.svc.ListCategories(h.ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

func (h *Handler) handleSummary(ctx *fasthttp.RequestCtx) {
	summary, err := h.svc.Summary(h.ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, summary)
}

// decodeBody unmarshals a JSON body into v. An empty body is accepted only
// when optional is set.
func decodeBody(ctx *fasthttp.RequestCtx, v interface{}, optional bool) error {
	body := ctx.PostBody()
	if len(strings.TrimSpace(string(body))) == 0 {
		if optional {
			return nil
		}
		return errors.Join(models.ErrInvalidInput, errors.New("request body is required"))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Join(models.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(ctx *fasthttp.RequestCtx, err error) {
	status := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = fasthttp.StatusServiceUnavailable
	case errors.Is(err, models.ErrInvalidInput):
		status = fasthttp.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = fasthttp.StatusNotFound
	default:
		log.Errorf("%s %s failed: %v", ctx.Method(), ctx.Path(), err)
	}
	writeJSON(ctx, status, map[string]string{"error": err.Error()})
}
