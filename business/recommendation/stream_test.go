package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardAdvisor/business/oracle"
	"cardAdvisor/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainEvents(t *testing.T, events <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()
	var out []domain.StreamEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not close")
			return out
		}
	}
}

func eventTypes(events []domain.StreamEvent) []domain.StreamEventType {
	out := make([]domain.StreamEventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestStreamEmitsLocationFirstUnsorted(t *testing.T) {
	cache := NewMemoryCache()
	orc := &fakeOracle{fn: func(call int, sc oracle.ScoreContext) (oracle.Score, error) {
		return oracle.Score{Score: 10 * call, Rationale: "ok"}, nil
	}}
	svc := NewService(diningCatalog(), &fakeBenefits{
		rows: []domain.LocationBenefit{locationBenefit(9, "Blue Cash", "test diner")},
	}, orc, cache, Config{})

	events := drainEvents(t, NewStreamingRecommender(svc).Stream(context.Background(), domain.RecommendationParams{
		StoreID:       1,
		StoreName:     "Test Diner",
		StoreCategory: "DINING",
		OwnedCardIDs:  []int64{7, 8},
	}))

	require.Equal(t, []domain.StreamEventType{
		domain.StreamEventHeartbeat,
		domain.StreamEventCard,
		domain.StreamEventCard,
		domain.StreamEventCard,
		domain.StreamEventDone,
	}, eventTypes(events))

	var got []domain.ScoredEntry
	for _, ev := range events[1:4] {
		got = append(got, ev.Data.(domain.ScoredEntry))
	}
	// emission order, not score order
	assert.Equal(t, []int64{9, 7, 8}, ids(got))
	assert.Equal(t, domain.ScoreSourceLocation, got[0].ScoreSource)
	assert.Equal(t, 10, got[1].Score)
	assert.Equal(t, 20, got[2].Score)

	meta := events[4].Data.(domain.RecommendationMeta)
	assert.Equal(t, 3, meta.Total)
	assert.False(t, meta.Cached)
	assert.Equal(t, domain.ScoreSourceTally{Location: 1, LLM: 2}, meta.ScoreSources)
	assert.Zero(t, cache.Len(), "streaming bypasses the cache")
}

func TestStreamRespectsLimit(t *testing.T) {
	svc := NewService(diningCatalog(), &fakeBenefits{}, nil, nil, Config{})

	events := drainEvents(t, NewStreamingRecommender(svc).Stream(context.Background(), domain.RecommendationParams{
		StoreCategory: "DINING",
		Limit:         2,
	}))

	require.Len(t, events, 4)
	assert.Equal(t, domain.StreamEventDone, events[3].Type)
	meta := events[3].Data.(domain.RecommendationMeta)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 2, meta.Limit)
}

func TestStreamGatewayFailure(t *testing.T) {
	catalog := diningCatalog()
	catalog.err = errors.New("db down")
	svc := NewService(catalog, &fakeBenefits{}, nil, nil, Config{})

	events := drainEvents(t, NewStreamingRecommender(svc).Stream(context.Background(), domain.RecommendationParams{StoreCategory: "DINING"}))

	require.Equal(t, []domain.StreamEventType{domain.StreamEventHeartbeat, domain.StreamEventError}, eventTypes(events))
	assert.Contains(t, events[1].Data.(domain.StreamError).Message, "db down")
}

func TestStreamAlreadyCancelled(t *testing.T) {
	catalog := diningCatalog()
	svc := NewService(catalog, &fakeBenefits{}, nil, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := drainEvents(t, NewStreamingRecommender(svc).Stream(ctx, domain.RecommendationParams{StoreCategory: "DINING"}))
	assert.Empty(t, events)
	assert.Zero(t, catalog.pageCalls)
}

func TestStreamCancelledMidwayHasNoDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orc := &fakeOracle{fn: func(call int, sc oracle.ScoreContext) (oracle.Score, error) {
		if call == 2 {
			cancel()
			return oracle.Score{}, &oracle.Error{Kind: oracle.KindCancelled, Err: context.Canceled}
		}
		return oracle.Score{Score: 60, Rationale: "ok"}, nil
	}}
	svc := NewService(diningCatalog(), &fakeBenefits{}, orc, nil, Config{})

	events := drainEvents(t, NewStreamingRecommender(svc).Stream(ctx, domain.RecommendationParams{
		OwnedCardIDs: []int64{7, 8, 9},
	}))

	types := eventTypes(events)
	assert.NotContains(t, types, domain.StreamEventDone)
	assert.NotContains(t, types, domain.StreamEventError)
	assert.LessOrEqual(t, len(events), 2)
	assert.Equal(t, 2, orc.callCount())
}

func TestStreamStopsWhenConsumerLeaves(t *testing.T) {
	var cards []domain.CardCandidate
	for i := int64(1); i <= 20; i++ {
		cards = append(cards, card(i, "Card", "DINING"))
	}
	svc := NewService(newFakeCatalog(cards...), &fakeBenefits{}, nil, nil, Config{StreamBuffer: 1})

	ctx, cancel := context.WithCancel(context.Background())
	events := NewStreamingRecommender(svc).Stream(ctx, domain.RecommendationParams{StoreCategory: "DINING", Limit: 20})

	first := <-events
	assert.Equal(t, domain.StreamEventHeartbeat, first.Type)
	cancel()

	rest := drainEvents(t, events)
	assert.NotContains(t, eventTypes(rest), domain.StreamEventDone)
}

func TestStreamSuppressesOracleAfterRetryableFailure(t *testing.T) {
	fail := true
	orc := &fakeOracle{fn: func(call int, sc oracle.ScoreContext) (oracle.Score, error) {
		if fail {
			return oracle.Score{}, &oracle.Error{Kind: oracle.KindNetwork, Err: errors.New("down")}
		}
		return oracle.Score{Score: 65, Rationale: "back"}, nil
	}}
	svc := NewService(diningCatalog(), &fakeBenefits{}, orc, nil, Config{})
	streamer := NewStreamingRecommender(svc)
	params := domain.RecommendationParams{StoreID: 1, OwnedCardIDs: []int64{7, 8, 9}}

	events := drainEvents(t, streamer.Stream(context.Background(), params))

	require.Equal(t, []domain.StreamEventType{
		domain.StreamEventHeartbeat,
		domain.StreamEventCard,
		domain.StreamEventCard,
		domain.StreamEventCard,
		domain.StreamEventDone,
	}, eventTypes(events))
	assert.Equal(t, 1, orc.callCount())
	for _, ev := range events[1:4] {
		assert.Equal(t, domain.ScoreSourceFallback, ev.Data.(domain.ScoredEntry).ScoreSource)
	}
	meta := events[4].Data.(domain.RecommendationMeta)
	assert.Equal(t, domain.ScoreSourceTally{Fallback: 3}, meta.ScoreSources)

	// a later stream starts with the oracle enabled again
	fail = false
	events = drainEvents(t, streamer.Stream(context.Background(), params))

	require.Len(t, events, 5)
	assert.Equal(t, 4, orc.callCount())
	meta = events[4].Data.(domain.RecommendationMeta)
	assert.Equal(t, domain.ScoreSourceTally{LLM: 3}, meta.ScoreSources)
}
