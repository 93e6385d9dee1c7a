package recommendation

import (
	"context"
	"slices"
	"sync"

	"cardAdvisor/business/oracle"
	"cardAdvisor/domain"
)

type fakeCatalog struct {
	mu           sync.Mutex
	cards        map[int64]domain.CardCandidate
	order        []int64
	err          error
	pageCalls    int
	hydrateCalls int
	lastPage     domain.CardPageQuery
}

func newFakeCatalog(cards ...domain.CardCandidate) *fakeCatalog {
	c := &fakeCatalog{cards: make(map[int64]domain.CardCandidate)}
	for _, card := range cards {
		c.cards[card.ID] = card
		c.order = append(c.order, card.ID)
	}
	return c
}

func (c *fakeCatalog) FetchPaginatedCards(_ context.Context, q domain.CardPageQuery) (domain.CardPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageCalls++
	c.lastPage = q
	if c.err != nil {
		return domain.CardPage{}, c.err
	}

	var page domain.CardPage
	for _, id := range c.order {
		card := c.cards[id]
		if q.NormalizedCategory != "" && !slices.Contains(card.NormalizedCategories, q.NormalizedCategory) {
			continue
		}
		page.Total++
		if len(page.Cards) < q.Limit {
			page.Cards = append(page.Cards, card)
		}
	}
	return page, nil
}

func (c *fakeCatalog) FindCardsByIDs(_ context.Context, ids []int64) ([]domain.CardCandidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hydrateCalls++
	if c.err != nil {
		return nil, c.err
	}

	var out []domain.CardCandidate
	for _, id := range ids {
		if card, ok := c.cards[id]; ok {
			out = append(out, card)
		}
	}
	return out, nil
}

type fakeBenefits struct {
	mu    sync.Mutex
	rows  []domain.LocationBenefit
	err   error
	calls int
	last  domain.LocationBenefitQuery
}

func (b *fakeBenefits) FetchLocationPriorityBenefits(_ context.Context, q domain.LocationBenefitQuery) ([]domain.LocationBenefit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.last = q
	if b.err != nil {
		return nil, b.err
	}
	if len(b.rows) > q.Limit {
		return b.rows[:q.Limit], nil
	}
	return b.rows, nil
}

type fakeOracle struct {
	mu    sync.Mutex
	calls []oracle.ScoreContext
	fn    func(call int, sc oracle.ScoreContext) (oracle.Score, error)
}

func (o *fakeOracle) ScoreCard(_ context.Context, sc oracle.ScoreContext) (oracle.Score, error) {
	o.mu.Lock()
	o.calls = append(o.calls, sc)
	n := len(o.calls)
	o.mu.Unlock()

	if o.fn == nil {
		return oracle.Score{Score: 70, Rationale: "model says fine"}, nil
	}
	return o.fn(n, sc)
}

func (o *fakeOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

func card(id int64, name string, categories ...string) domain.CardCandidate {
	return domain.CardCandidate{
		ID:                   id,
		Name:                 name,
		Issuer:               "Issuer " + name,
		NormalizedCategories: categories,
	}
}

func locationBenefit(cardID int64, name, keyword string) domain.LocationBenefit {
	return domain.LocationBenefit{
		CardID:             cardID,
		CardName:           name,
		Description:        "bonus at " + keyword,
		Keyword:            keyword,
		NormalizedCategory: "DINING",
		IsLocationBased:    true,
	}
}

func ids(entries []domain.ScoredEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.CardID)
	}
	return out
}
