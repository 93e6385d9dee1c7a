package card

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardAdvisor/domain"
	"cardAdvisor/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var ErrInvalidCardID = errors.New("invalid card id")

// CardRepository contract interface
type CardRepository interface {
	FetchPaginatedCards(ctx context.Context, q domain.CardPageQuery) (domain.CardPage, error)
	FindByID(ctx context.Context, id int64) (domain.Card, error)
}

type cardService struct {
	cardRepo CardRepository
}

func NewCardService(cardRepo CardRepository) *cardService {
	return &cardService{
		cardRepo: cardRepo,
	}
}

// ListCards pages through the catalog, optionally filtered by benefit
// category. Page size is clamped to [1,100].
func (s *cardService) ListCards(ctx context.Context, category string, limit, offset int) (domain.CardPage, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when listing cards")
		return domain.CardPage{}, fmt.Errorf("context error: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	page, err := s.cardRepo.FetchPaginatedCards(ctx, domain.CardPageQuery{
		NormalizedCategory: strings.ToUpper(strings.TrimSpace(category)),
		Limit:              limit,
		Offset:             offset,
	})
	if err != nil {
		logger.Error("failed to list cards", "error", err)
		return domain.CardPage{}, err
	}
	if page.Cards == nil {
		page.Cards = []domain.CardCandidate{}
	}

	return page, nil
}

func (s *cardService) GetCardByID(ctx context.Context, id int64) (domain.Card, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get card by id")
		return domain.Card{}, fmt.Errorf("context error: %w", err)
	}

	if id <= 0 {
		return domain.Card{}, ErrInvalidCardID
	}

	card, err := s.cardRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrCardNotFound) {
			logger.Error("failed to find card", "card_id", id, "error", err)
		}
		return domain.Card{}, err
	}

	return card, nil
}
