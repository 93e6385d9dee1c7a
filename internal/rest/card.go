package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cardAdvisor/domain"
	"cardAdvisor/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CardService interface {
	ListCards(ctx context.Context, category string, limit, offset int) (domain.CardPage, error)
	GetCardByID(ctx context.Context, id int64) (domain.Card, error)
}

type CardHandler struct {
	cardService CardService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewCardHandler(cardService CardService) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type CardListQuery struct {
	Category string `query:"category" validate:"max=64"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

func (h *CardHandler) ListCards(c echo.Context) error {
	var q CardListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	page, err := h.cardService.ListCards(ctx, q.Category, q.Limit, q.Offset)
	if err != nil {
		logger.Error("Failed to list cards", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(page))
}

func (h *CardHandler) GetCardByID(c echo.Context) error {
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || cardID <= 0 {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid card id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	card, err := h.cardService.GetCardByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to find card", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(card))
}
