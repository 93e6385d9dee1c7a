package recommendation

import (
	"context"
	"fmt"
	"slices"

	"cardAdvisor/domain"

	"golang.org/x/sync/errgroup"
)

// plannedCard is one card queued for scoring, with its location benefit if
// the card matched one.
type plannedCard struct {
	card  domain.CardCandidate
	match *domain.LocationBenefit
}

// planCandidates resolves candidates and location matches concurrently and
// returns the initial scoring order: location matches first in benefit order,
// then the remaining candidates in resolution order, each card once.
func (s *Service) planCandidates(ctx context.Context, req request) ([]plannedCard, error) {
	var (
		candidates []domain.CardCandidate
		matches    []domain.LocationBenefit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.resolveCandidates(gctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.fetchLocationMatches(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		if abortErr := ensureActive(ctx); abortErr != nil {
			return nil, abortErr
		}
		return nil, err
	}
	if err := ensureActive(ctx); err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.CardCandidate, len(candidates)+len(matches))
	for _, c := range candidates {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
		}
	}

	// location matches are authoritative: pull in cards the selection mode skipped
	var missing []int64
	for _, m := range matches {
		if _, ok := byID[m.CardID]; !ok {
			missing = append(missing, m.CardID)
		}
	}
	if len(missing) > 0 {
		hydrated, err := s.catalog.FindCardsByIDs(ctx, missing)
		if err != nil {
			if abortErr := ensureActive(ctx); abortErr != nil {
				return nil, abortErr
			}
			return nil, fmt.Errorf("hydrate location cards: %w", err)
		}
		for _, c := range hydrated {
			if _, ok := byID[c.ID]; !ok {
				byID[c.ID] = c
			}
		}
	}

	placed := make(map[int64]struct{}, len(byID))
	ordered := make([]plannedCard, 0, len(byID))

	for i := range matches {
		m := matches[i]
		card, ok := byID[m.CardID]
		if !ok {
			continue
		}
		if _, dup := placed[card.ID]; dup {
			continue
		}
		placed[card.ID] = struct{}{}
		ordered = append(ordered, plannedCard{card: card, match: &m})
	}

	for _, c := range candidates {
		if _, dup := placed[c.ID]; dup {
			continue
		}
		placed[c.ID] = struct{}{}
		ordered = append(ordered, plannedCard{card: c})
	}

	if len(ordered) > 0 {
		return ordered, nil
	}

	// nothing survived selection: fall back to the non-personalized pool
	pool, err := s.fetchCategoryPool(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, c := range pool {
		if _, dup := placed[c.ID]; dup {
			continue
		}
		if req.discover && req.isOwned(c.ID) {
			continue
		}
		placed[c.ID] = struct{}{}
		ordered = append(ordered, plannedCard{card: c})
	}

	return ordered, nil
}

func (s *Service) resolveCandidates(ctx context.Context, req request) ([]domain.CardCandidate, error) {
	switch {
	case req.discover:
		pool, err := s.fetchCategoryPool(ctx, req)
		if err != nil {
			return nil, err
		}
		out := make([]domain.CardCandidate, 0, len(pool))
		for _, c := range pool {
			if req.isOwned(c.ID) {
				continue
			}
			out = append(out, c)
		}
		return out, nil

	case len(req.ownedIDs) > 0:
		cards, err := s.catalog.FindCardsByIDs(ctx, req.ownedIDs)
		if err != nil {
			return nil, fmt.Errorf("hydrate owned cards: %w", err)
		}
		// keep the caller's ordering regardless of how the store returned rows
		rank := make(map[int64]int, len(req.ownedIDs))
		for i, id := range req.ownedIDs {
			rank[id] = i
		}
		out := make([]domain.CardCandidate, 0, len(cards))
		for _, c := range cards {
			if req.isOwned(c.ID) {
				out = append(out, c)
			}
		}
		slices.SortStableFunc(out, func(a, b domain.CardCandidate) int {
			return rank[a.ID] - rank[b.ID]
		})
		return out, nil

	default:
		return s.fetchCategoryPool(ctx, req)
	}
}

func (s *Service) fetchCategoryPool(ctx context.Context, req request) ([]domain.CardCandidate, error) {
	page, err := s.catalog.FetchPaginatedCards(ctx, domain.CardPageQuery{
		NormalizedCategory: req.category,
		Limit:              req.poolSize(),
	})
	if err != nil {
		return nil, fmt.Errorf("load category cards: %w", err)
	}
	return page.Cards, nil
}

// fetchLocationMatches keeps the first location benefit per card, in the
// order the gateway ranked them.
func (s *Service) fetchLocationMatches(ctx context.Context, req request) ([]domain.LocationBenefit, error) {
	rows, err := s.benefits.FetchLocationPriorityBenefits(ctx, domain.LocationBenefitQuery{
		NormalizedCategory: req.category,
		Keywords:           req.keywords,
		LocationOnly:       true,
		Limit:              req.poolSize(),
	})
	if err != nil {
		return nil, fmt.Errorf("load location benefits: %w", err)
	}

	seen := make(map[int64]struct{}, len(rows))
	out := make([]domain.LocationBenefit, 0, len(rows))
	for _, b := range rows {
		if !b.IsLocationBased {
			continue
		}
		if _, dup := seen[b.CardID]; dup {
			continue
		}
		seen[b.CardID] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}
