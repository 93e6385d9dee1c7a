package recommendation

import (
	"context"
	"errors"

	"cardAdvisor/domain"
	"cardAdvisor/pkg/logger"
)

// StreamingRecommender yields scored cards as soon as each is computed. It
// shares candidate planning and per-card scoring with Service but never
// sorts across entries and never touches the cache.
type StreamingRecommender struct {
	engine *Service
	buffer int
}

func NewStreamingRecommender(engine *Service) *StreamingRecommender {
	return &StreamingRecommender{
		engine: engine,
		buffer: engine.cfg.StreamBuffer,
	}
}

// Stream starts a producer and returns its event channel. The first event is
// always a heartbeat; a successful stream ends with exactly one done event.
// When ctx ends the producer stops emitting and closes the channel without a
// done event.
func (r *StreamingRecommender) Stream(ctx context.Context, params domain.RecommendationParams) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent, r.buffer)

	go func() {
		defer close(events)
		r.produce(ctx, params, events)
	}()

	return events
}

func (r *StreamingRecommender) produce(ctx context.Context, params domain.RecommendationParams, events chan<- domain.StreamEvent) {
	if ensureActive(ctx) != nil {
		return
	}

	s := r.engine
	req := s.normalize(params)
	started := s.now()

	if !emit(ctx, events, domain.StreamEvent{Type: domain.StreamEventHeartbeat, Data: struct{}{}}) {
		return
	}

	planned, err := s.planCandidates(ctx, req)
	if err != nil {
		r.fail(ctx, events, err)
		return
	}

	st := &scoringState{}
	var sources domain.ScoreSourceTally
	emitted := 0

	for _, pc := range planned {
		if emitted >= req.limit {
			break
		}

		entry, err := s.scoreCard(ctx, req, pc, st)
		if err != nil {
			r.fail(ctx, events, err)
			return
		}

		if !emit(ctx, events, domain.StreamEvent{Type: domain.StreamEventCard, Data: entry}) {
			return
		}
		sources.Add(entry.ScoreSource)
		emitted++
	}

	if ensureActive(ctx) != nil {
		return
	}

	mode := modeLabel(req.discover)
	ScoreSourceTotal.WithLabelValues(string(domain.ScoreSourceLocation), mode).Add(float64(sources.Location))
	ScoreSourceTotal.WithLabelValues(string(domain.ScoreSourceLLM), mode).Add(float64(sources.LLM))
	ScoreSourceTotal.WithLabelValues(string(domain.ScoreSourceFallback), mode).Add(float64(sources.Fallback))

	emit(ctx, events, domain.StreamEvent{
		Type: domain.StreamEventDone,
		Data: domain.RecommendationMeta{
			Total:        emitted,
			Limit:        req.limit,
			Discover:     req.discover,
			StoreID:      req.storeID,
			LatencyMs:    s.now().Sub(started).Milliseconds(),
			Cached:       false,
			ScoreSources: sources,
		},
	})
}

// fail reports a gateway failure as an error event. Aborts end the stream
// silently.
func (r *StreamingRecommender) fail(ctx context.Context, events chan<- domain.StreamEvent, err error) {
	if errors.Is(err, ErrAborted) || ctx.Err() != nil {
		return
	}

	logger.Error("recommendation stream failed",
		"request_id", RequestIDFromContext(ctx),
		"error", err,
	)
	emit(ctx, events, domain.StreamEvent{
		Type: domain.StreamEventError,
		Data: domain.StreamError{Message: err.Error()},
	})
}

// emit blocks until the consumer takes the event or ctx ends.
func emit(ctx context.Context, events chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
