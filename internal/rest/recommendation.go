package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cardAdvisor/domain"
	"cardAdvisor/pkg/logger"
	"cardAdvisor/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationHandler struct {
		validate  *validator.Validate
		service   RecommendationService
		streamer  RecommendationStreamer
		merchants MerchantRepository
		timeout   time.Duration
	}

	RecommendationService interface {
		GetRecommendations(ctx context.Context, params domain.RecommendationParams) (domain.RecommendationResult, error)
	}

	RecommendationStreamer interface {
		Stream(ctx context.Context, params domain.RecommendationParams) <-chan domain.StreamEvent
	}

	MerchantRepository interface {
		FindByID(ctx context.Context, id int64) (domain.Merchant, error)
	}

	RecommendationQuery struct {
		StoreID       int64  `query:"store_id" validate:"gte=0,required_without_all=StoreName StoreCategory"`
		StoreName     string `query:"store_name" validate:"max=200"`
		StoreCategory string `query:"store_category" validate:"max=64"`
		OwnedCardIDs  string `query:"owned_card_ids"`
		Discover      bool   `query:"discover"`
		Keywords      string `query:"keywords"`
		Limit         int    `query:"limit" validate:"gte=0"`
	}
)

var errUnknownMerchant = errors.New("merchant not found")

func NewRecommendationHandler(
	service RecommendationService,
	streamer RecommendationStreamer,
	merchants MerchantRepository,
	timeout time.Duration,
) *RecommendationHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RecommendationHandler{
		validate:  validator.New(),
		service:   service,
		streamer:  streamer,
		merchants: merchants,
		timeout:   timeout,
	}
}

// GET /api/v1/recommendations?store_id=1&owned_card_ids=7,8&limit=5
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	params, err := h.bindParams(ctx, c)
	if err != nil {
		return h.paramError(c, err)
	}

	result, err := h.service.GetRecommendations(ctx, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// GET /api/v1/recommendations/stream emits server-sent events: heartbeat,
// one card per scored entry, then done or error.
func (h *RecommendationHandler) Stream(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	params, err := h.bindParams(ctx, c)
	if err != nil {
		return h.paramError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for ev := range h.streamer.Stream(ctx, params) {
		if err := writeEvent(res, ev); err != nil {
			// client went away; cancelling stops the producer
			logger.Debug("recommendation stream write failed", "error", err)
			cancel()
			return nil
		}
		res.Flush()
		metrics.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	}

	return nil
}

func writeEvent(w io.Writer, ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode stream event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

func (h *RecommendationHandler) paramError(c echo.Context, err error) error {
	if errors.Is(err, errUnknownMerchant) {
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	}
	var badRequest *queryError
	if errors.As(err, &badRequest) {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	return err
}

type queryError struct {
	err error
}

func (e *queryError) Error() string { return e.err.Error() }

func (e *queryError) Unwrap() error { return e.err }

// bindParams validates the query and fills store details from the merchant
// table when the caller only sent a store id.
func (h *RecommendationHandler) bindParams(ctx context.Context, c echo.Context) (domain.RecommendationParams, error) {
	var q RecommendationQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return domain.RecommendationParams{}, &queryError{err: err}
	}
	if err := h.validate.Struct(&q); err != nil {
		return domain.RecommendationParams{}, &queryError{err: err}
	}

	owned, err := parseIDList(q.OwnedCardIDs)
	if err != nil {
		return domain.RecommendationParams{}, &queryError{err: err}
	}

	params := domain.RecommendationParams{
		StoreID:          q.StoreID,
		StoreName:        strings.TrimSpace(q.StoreName),
		StoreCategory:    strings.TrimSpace(q.StoreCategory),
		OwnedCardIDs:     owned,
		Discover:         q.Discover,
		LocationKeywords: splitCSV(q.Keywords),
		Limit:            q.Limit,
	}

	if params.StoreID > 0 && h.merchants != nil && (params.StoreName == "" || params.StoreCategory == "") {
		merchant, err := h.merchants.FindByID(ctx, params.StoreID)
		switch {
		case err == nil:
			if params.StoreName == "" {
				params.StoreName = merchant.Name
			}
			if params.StoreCategory == "" {
				params.StoreCategory = merchant.Category
			}
			params.LocationKeywords = append(params.LocationKeywords, merchant.Keywords...)
		case errors.Is(err, domain.ErrMerchantNotFound):
			if params.StoreCategory == "" {
				return domain.RecommendationParams{}, errUnknownMerchant
			}
		default:
			return domain.RecommendationParams{}, fmt.Errorf("resolve merchant: %w", err)
		}
	}

	return params, nil
}

func parseIDList(raw string) ([]int64, error) {
	parts := splitCSV(raw)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid card id %q in owned_card_ids", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
