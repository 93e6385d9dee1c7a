package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"cardAdvisor/domain"

	"gorm.io/gorm"
)

type CardRepository struct {
	DB *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{
		DB: db,
	}
}

// FetchPaginatedCards returns a page of cards ordered by id. A non-empty
// category keeps only cards with at least one benefit in that category.
func (r *CardRepository) FetchPaginatedCards(ctx context.Context, q domain.CardPageQuery) (domain.CardPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.CardPage{}, fmt.Errorf("context error: %w", err)
	}

	db := r.DB.WithContext(ctx)
	base := db.Model(&domain.Card{})
	if q.NormalizedCategory != "" {
		sub := db.Model(&domain.CardBenefit{}).
			Select("card_id").
			Where("normalized_category = ?", q.NormalizedCategory)
		base = base.Where("id IN (?)", sub)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return domain.CardPage{}, fmt.Errorf("failed to count cards: %w", err)
	}

	var cards []domain.Card
	query := base.Session(&gorm.Session{}).Preload("Benefits").Order("id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if err := query.Find(&cards).Error; err != nil {
		return domain.CardPage{}, fmt.Errorf("failed to find cards: %w", err)
	}

	return domain.CardPage{
		Cards: toCandidates(cards),
		Total: total,
	}, nil
}

// FindCardsByIDs hydrates the given ids; unknown ids are silently omitted.
func (r *CardRepository) FindCardsByIDs(ctx context.Context, ids []int64) ([]domain.CardCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return []domain.CardCandidate{}, nil
	}

	var cards []domain.Card
	err := r.DB.WithContext(ctx).
		Preload("Benefits").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find cards by ids: %w", err)
	}

	return toCandidates(cards), nil
}

func (r *CardRepository) FindByID(ctx context.Context, id int64) (domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return domain.Card{}, fmt.Errorf("context error: %w", err)
	}

	var card domain.Card
	err := r.DB.WithContext(ctx).Preload("Benefits").First(&card, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Card{}, domain.ErrCardNotFound
		}
		return domain.Card{}, fmt.Errorf("failed to find card: %w", err)
	}

	return card, nil
}

func toCandidates(cards []domain.Card) []domain.CardCandidate {
	out := make([]domain.CardCandidate, 0, len(cards))
	for _, c := range cards {
		out = append(out, ToCandidate(c))
	}
	return out
}

// ToCandidate flattens a card's benefits into its distinct categories, in
// benefit order.
func ToCandidate(c domain.Card) domain.CardCandidate {
	categories := make([]string, 0, len(c.Benefits))
	for _, b := range c.Benefits {
		if b.NormalizedCategory == "" || slices.Contains(categories, b.NormalizedCategory) {
			continue
		}
		categories = append(categories, b.NormalizedCategory)
	}

	return domain.CardCandidate{
		ID:                   c.ID,
		Name:                 c.Name,
		Issuer:               c.Issuer,
		NormalizedCategories: categories,
	}
}
