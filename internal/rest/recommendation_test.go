package rest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardAdvisor/business/recommendation"
	"cardAdvisor/domain"
	"cardAdvisor/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecommender struct {
	last   domain.RecommendationParams
	result domain.RecommendationResult
	err    error
}

func (s *stubRecommender) GetRecommendations(_ context.Context, p domain.RecommendationParams) (domain.RecommendationResult, error) {
	s.last = p
	return s.result, s.err
}

type stubStreamer struct {
	last   domain.RecommendationParams
	events []domain.StreamEvent
}

func (s *stubStreamer) Stream(_ context.Context, p domain.RecommendationParams) <-chan domain.StreamEvent {
	s.last = p
	ch := make(chan domain.StreamEvent, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch
}

type stubMerchants map[int64]domain.Merchant

func (m stubMerchants) FindByID(_ context.Context, id int64) (domain.Merchant, error) {
	merchant, ok := m[id]
	if !ok {
		return domain.Merchant{}, domain.ErrMerchantNotFound
	}
	return merchant, nil
}

func newTestServer(h *RecommendationHandler) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(middleware.RequestID())
	e.GET("/recommendations", h.Recommend)
	e.GET("/recommendations/stream", h.Stream)
	return e
}

func serve(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecommendBindsQuery(t *testing.T) {
	svc := &stubRecommender{result: domain.RecommendationResult{
		Data: []domain.ScoredEntry{{CardID: 7, Score: 100, ScoreSource: domain.ScoreSourceLocation}},
		Meta: domain.RecommendationMeta{Total: 1, Limit: 5},
	}}
	e := newTestServer(NewRecommendationHandler(svc, &stubStreamer{}, nil, time.Second))

	rec := serve(e, "/recommendations?store_id=1&store_name=Test%20Diner&store_category=DINING&owned_card_ids=7,%208&keywords=mall,,downtown&discover=true&limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, domain.RecommendationParams{
		StoreID:          1,
		StoreName:        "Test Diner",
		StoreCategory:    "DINING",
		OwnedCardIDs:     []int64{7, 8},
		Discover:         true,
		LocationKeywords: []string{"mall", "downtown"},
		Limit:            5,
	}, svc.last)

	var body domain.RecommendationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, svc.result, body)
}

func TestRecommendResolvesMerchant(t *testing.T) {
	svc := &stubRecommender{}
	merchants := stubMerchants{3: {ID: 3, Name: "Joe's", Category: "DINING", Keywords: []string{"joes", "food court"}}}
	e := newTestServer(NewRecommendationHandler(svc, &stubStreamer{}, merchants, time.Second))

	rec := serve(e, "/recommendations?store_id=3&keywords=airport")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Joe's", svc.last.StoreName)
	assert.Equal(t, "DINING", svc.last.StoreCategory)
	assert.Equal(t, []string{"airport", "joes", "food court"}, svc.last.LocationKeywords)
}

func TestRecommendUnknownMerchant(t *testing.T) {
	e := newTestServer(NewRecommendationHandler(&stubRecommender{}, &stubStreamer{}, stubMerchants{}, time.Second))

	rec := serve(e, "/recommendations?store_id=99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// an explicit category is enough to score without the merchant row
	rec = serve(e, "/recommendations?store_id=99&store_category=GAS")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecommendValidation(t *testing.T) {
	e := newTestServer(NewRecommendationHandler(&stubRecommender{}, &stubStreamer{}, nil, time.Second))

	for _, target := range []string{
		"/recommendations",
		"/recommendations?store_id=-1",
		"/recommendations?store_id=abc",
		"/recommendations?store_category=DINING&owned_card_ids=1,x",
		"/recommendations?store_category=DINING&limit=-2",
	} {
		rec := serve(e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestRecommendErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"aborted", fmt.Errorf("%w: %w", recommendation.ErrAborted, context.Canceled), http.StatusServiceUnavailable},
		{"gateway", errors.New("load category cards: db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(NewRecommendationHandler(&stubRecommender{err: tt.err}, &stubStreamer{}, nil, time.Second))
			rec := serve(e, "/recommendations?store_category=DINING")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestStreamWritesServerSentEvents(t *testing.T) {
	streamer := &stubStreamer{events: []domain.StreamEvent{
		{Type: domain.StreamEventHeartbeat, Data: struct{}{}},
		{Type: domain.StreamEventCard, Data: domain.ScoredEntry{CardID: 7, Score: 100, ScoreSource: domain.ScoreSourceLocation}},
		{Type: domain.StreamEventDone, Data: domain.RecommendationMeta{Total: 1, Limit: 10}},
	}}
	e := newTestServer(NewRecommendationHandler(&stubRecommender{}, streamer, nil, time.Second))

	rec := serve(e, "/recommendations/stream?store_category=dining&owned_card_ids=7")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, []int64{7}, streamer.last.OwnedCardIDs)

	var names []string
	var frames []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			var frame map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
			frames = append(frames, frame)
		}
	}

	assert.Equal(t, []string{"heartbeat", "card", "done"}, names)
	require.Len(t, frames, 3)
	assert.Equal(t, "card", frames[1]["type"])
	assert.Equal(t, float64(7), frames[1]["data"].(map[string]any)["cardId"])
	assert.Equal(t, float64(1), frames[2]["data"].(map[string]any)["total"])
}

func TestStreamRejectsBadQuery(t *testing.T) {
	e := newTestServer(NewRecommendationHandler(&stubRecommender{}, &stubStreamer{}, nil, time.Second))

	rec := serve(e, "/recommendations/stream")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEqual(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList(" 3, 1,,2 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDList("1,two")
	assert.Error(t, err)
}
