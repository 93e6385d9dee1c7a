package recommendation

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"cardAdvisor/business/oracle"
	"cardAdvisor/domain"
	"cardAdvisor/pkg/logger"
)

// scoringState is per-computation and never shared across requests.
type scoringState struct {
	oracleSuppressed bool
}

// scoreCard scores one planned card: a location match wins outright, then the
// oracle (owned mode only, until suppressed), then the heuristic. The only
// error it returns is an abort.
func (s *Service) scoreCard(ctx context.Context, req request, pc plannedCard, st *scoringState) (domain.ScoredEntry, error) {
	if err := ensureActive(ctx); err != nil {
		return domain.ScoredEntry{}, err
	}

	entry := domain.ScoredEntry{
		CardID:               pc.card.ID,
		CardName:             pc.card.Name,
		Issuer:               pc.card.Issuer,
		NormalizedCategories: pc.card.NormalizedCategories,
	}

	if pc.match != nil {
		entry.Score = locationScore
		entry.ScoreSource = domain.ScoreSourceLocation
		entry.Rationale = locationRationale(*pc.match)
		return entry, nil
	}

	if s.oracle != nil && !req.discover && !st.oracleSuppressed {
		res, err := s.oracle.ScoreCard(ctx, oracle.ScoreContext{
			StoreName:      req.storeName,
			StoreCategory:  req.category,
			Keywords:       req.keywords,
			CardID:         pc.card.ID,
			CardName:       pc.card.Name,
			Issuer:         pc.card.Issuer,
			CardCategories: pc.card.NormalizedCategories,
		})
		if abortErr := ensureActive(ctx); abortErr != nil {
			return domain.ScoredEntry{}, abortErr
		}

		switch {
		case err == nil:
			entry.Score = oracle.Clamp(res.Score)
			entry.ScoreSource = domain.ScoreSourceLLM
			entry.Rationale = res.Rationale
			return entry, nil

		case oracle.IsCancelled(err):
			return domain.ScoredEntry{}, fmt.Errorf("%w: %w", ErrAborted, err)

		case oracle.KindOf(err) == oracle.KindParsing:
			logger.Warn("oracle response unusable, using heuristic",
				"request_id", RequestIDFromContext(ctx),
				"card_id", pc.card.ID,
				"error", err,
			)

		default:
			st.oracleSuppressed = true
			OracleSuppressedTotal.Inc()
			logger.Warn("oracle unavailable, suppressing for remaining cards",
				"request_id", RequestIDFromContext(ctx),
				"card_id", pc.card.ID,
				"kind", string(oracle.KindOf(err)),
				"error", err,
			)
		}
	}

	entry.Score, entry.Rationale = fallbackScore(req, pc.card)
	entry.ScoreSource = domain.ScoreSourceFallback
	return entry, nil
}

func locationRationale(b domain.LocationBenefit) string {
	if kw := strings.TrimSpace(b.Keyword); kw != "" {
		return fmt.Sprintf("Location-based benefit matched %q", kw)
	}
	return "Matched location-based benefit"
}

// fallbackScore is the deterministic heuristic used when the oracle is not
// consulted: base + category hit + breadth bonus, clamped to [25,90].
func fallbackScore(req request, card domain.CardCandidate) (int, string) {
	score := fallbackBase
	if req.discover {
		score = fallbackDiscoverBase
	}

	categoryHit := req.category != "" && slices.Contains(card.NormalizedCategories, req.category)
	if categoryHit {
		score += fallbackCategoryHit
	}
	score += min(fallbackPerCategory*len(card.NormalizedCategories), fallbackCategoryCap)
	score = max(fallbackMin, min(score, fallbackMax))

	var parts []string
	if categoryHit {
		parts = append(parts, fmt.Sprintf("Earns in the %s category", req.category))
	}
	if req.storeName != "" {
		parts = append(parts, fmt.Sprintf("heuristic near %s", req.storeName))
	}
	if len(parts) == 0 {
		return score, "Fallback score from card benefit coverage"
	}
	return score, strings.Join(parts, "; ")
}

// compareEntries orders by score desc, then source priority, then card name.
func compareEntries(a, b domain.ScoredEntry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ScoreSource.Priority(), b.ScoreSource.Priority()); c != 0 {
		return c
	}
	return strings.Compare(a.CardName, b.CardName)
}

func sortEntries(entries []domain.ScoredEntry) {
	slices.SortStableFunc(entries, compareEntries)
}

func tally(entries []domain.ScoredEntry) domain.ScoreSourceTally {
	var t domain.ScoreSourceTally
	for _, e := range entries {
		t.Add(e.ScoreSource)
	}
	return t
}
