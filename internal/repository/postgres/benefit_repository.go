package postgres

import (
	"context"
	"fmt"
	"strings"

	"cardAdvisor/domain"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

type BenefitRepository struct {
	DB *gorm.DB
}

func NewBenefitRepository(db *gorm.DB) *BenefitRepository {
	return &BenefitRepository{
		DB: db,
	}
}

// FetchLocationPriorityBenefits returns benefits that match the category or
// one of the keywords, keyword matches first.
func (r *BenefitRepository) FetchLocationPriorityBenefits(ctx context.Context, q domain.LocationBenefitQuery) ([]domain.LocationBenefit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query, args, ok, err := buildLocationBenefitQuery(q)
	if err != nil {
		return nil, fmt.Errorf("failed to build location benefit query: %w", err)
	}
	if !ok {
		return []domain.LocationBenefit{}, nil
	}

	var rows []domain.LocationBenefit
	if err := r.DB.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch location benefits: %w", err)
	}

	return rows, nil
}

// buildLocationBenefitQuery reports ok=false when there is nothing to match on.
func buildLocationBenefitQuery(q domain.LocationBenefitQuery) (string, []any, bool, error) {
	keywords := make([]string, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	match := sq.Or{}
	if q.NormalizedCategory != "" {
		match = append(match, sq.Eq{"cb.normalized_category": q.NormalizedCategory})
	}
	if len(keywords) > 0 {
		match = append(match, sq.Eq{"LOWER(cb.keyword)": keywords})
	}
	if len(match) == 0 {
		return "", nil, false, nil
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question).
		Select(
			"cb.card_id AS card_id",
			"c.name AS card_name",
			"COALESCE(cb.description, '') AS description",
			"COALESCE(cb.keyword, '') AS keyword",
			"COALESCE(cb.normalized_category, '') AS normalized_category",
			"cb.is_location_based AS is_location_based",
		).
		From("card_benefits cb").
		Join("cards c ON c.id = cb.card_id").
		Where(match)

	if q.LocationOnly {
		builder = builder.Where(sq.Eq{"cb.is_location_based": true})
	}

	if len(keywords) > 0 {
		rankSQL, rankArgs, err := sq.Eq{"LOWER(cb.keyword)": keywords}.ToSql()
		if err != nil {
			return "", nil, false, err
		}
		builder = builder.OrderByClause("CASE WHEN "+rankSQL+" THEN 0 ELSE 1 END", rankArgs...)
	}
	builder = builder.OrderBy("cb.id ASC")

	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, false, err
	}
	return query, args, true, nil
}
