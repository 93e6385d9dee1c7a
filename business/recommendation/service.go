package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardAdvisor/business/oracle"
	"cardAdvisor/domain"
	"cardAdvisor/pkg/logger"
)

// ErrAborted wraps every error caused by the caller's context ending.
var ErrAborted = errors.New("recommendation aborted")

// ---- Gateway interfaces ----

type CardCatalogGateway interface {
	FetchPaginatedCards(ctx context.Context, q domain.CardPageQuery) (domain.CardPage, error)
	// FindCardsByIDs returns the cards that exist; unknown ids are omitted.
	FindCardsByIDs(ctx context.Context, ids []int64) ([]domain.CardCandidate, error)
}

type LocationBenefitGateway interface {
	// FetchLocationPriorityBenefits returns location benefits with keyword
	// matches ranked first.
	FetchLocationPriorityBenefits(ctx context.Context, q domain.LocationBenefitQuery) ([]domain.LocationBenefit, error)
}

type ScoringOracle interface {
	ScoreCard(ctx context.Context, sc oracle.ScoreContext) (oracle.Score, error)
}

// ---- Service ----

type Service struct {
	catalog  CardCatalogGateway
	benefits LocationBenefitGateway
	oracle   ScoringOracle
	cache    Cache
	cfg      Config
	now      func() time.Time
}

// NewService wires the engine. A nil oracle means every non-location card is
// scored by the heuristic; a nil cache gets a fresh MemoryCache.
func NewService(
	catalog CardCatalogGateway,
	benefits LocationBenefitGateway,
	scorer ScoringOracle,
	cache Cache,
	cfg Config,
) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		catalog:  catalog,
		benefits: benefits,
		oracle:   scorer,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// ClearCache drops every cached payload.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// GetRecommendations returns ranked cards for a store. It fails only when ctx
// ends or a gateway lookup fails; oracle trouble degrades to the heuristic.
func (s *Service) GetRecommendations(
	ctx context.Context,
	params domain.RecommendationParams,
) (domain.RecommendationResult, error) {
	if err := ensureActive(ctx); err != nil {
		return domain.RecommendationResult{}, err
	}

	req := s.normalize(params)
	started := s.now()
	key := cacheKey(req)

	if payload, ok := s.cache.Get(ctx, key); ok {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		logger.Debug("recommendation_cache_hit",
			"request_id", RequestIDFromContext(ctx),
			"store_id", req.storeID,
		)
		return s.decorate(req, payload, started, true), nil
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()

	payload, err := s.computeRecommendations(ctx, req)
	if err != nil {
		return domain.RecommendationResult{}, err
	}

	// a result finished after cancellation is discarded, not cached
	if err := ensureActive(ctx); err != nil {
		return domain.RecommendationResult{}, err
	}
	s.cache.Set(ctx, key, payload, s.cfg.CacheTTL)

	return s.decorate(req, payload, started, false), nil
}

func (s *Service) computeRecommendations(ctx context.Context, req request) (Payload, error) {
	planned, err := s.planCandidates(ctx, req)
	if err != nil {
		return Payload{}, err
	}

	st := &scoringState{}
	entries := make([]domain.ScoredEntry, 0, len(planned))
	for _, pc := range planned {
		entry, err := s.scoreCard(ctx, req, pc, st)
		if err != nil {
			return Payload{}, err
		}
		entries = append(entries, entry)
	}

	sortEntries(entries)

	sources := tally(entries)
	total := len(entries)
	if len(entries) > req.limit {
		entries = entries[:req.limit]
	}

	mode := modeLabel(req.discover)
	ScoreSourceTotal.WithLabelValues(string(domain.ScoreSourceLocation), mode).Add(float64(sources.Location))
	ScoreSourceTotal.WithLabelValues(string(domain.ScoreSourceLLM), mode).Add(float64(sources.LLM))
	ScoreSourceTotal.WithLabelValues(string(domain.ScoreSourceFallback), mode).Add(float64(sources.Fallback))

	logger.Debug("recommendation_computed",
		"request_id", RequestIDFromContext(ctx),
		"store_id", req.storeID,
		"category", req.category,
		"discover", req.discover,
		"candidate_count", total,
		"oracle_suppressed", st.oracleSuppressed,
	)

	return Payload{
		Entries:      entries,
		Total:        total,
		ScoreSources: sources,
	}, nil
}

func (s *Service) decorate(req request, payload Payload, started time.Time, cached bool) domain.RecommendationResult {
	data := payload.Entries
	if data == nil {
		data = []domain.ScoredEntry{}
	}

	return domain.RecommendationResult{
		Data: data,
		Meta: domain.RecommendationMeta{
			Total:        payload.Total,
			Limit:        req.limit,
			Discover:     req.discover,
			StoreID:      req.storeID,
			LatencyMs:    s.now().Sub(started).Milliseconds(),
			Cached:       cached,
			ScoreSources: payload.ScoreSources,
		},
	}
}

func ensureActive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return nil
}
