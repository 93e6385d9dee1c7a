package recommendation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"cardAdvisor/domain"
)

// request is the normalized, request-scoped view of RecommendationParams.
type request struct {
	storeID   int64
	storeName string
	category  string
	ownedIDs  []int64
	owned     map[int64]struct{}
	discover  bool
	keywords  []string
	limit     int
}

func (r request) isOwned(id int64) bool {
	_, ok := r.owned[id]
	return ok
}

// poolSize is how many rows each gateway lookup asks for.
func (r request) poolSize() int {
	return r.limit * candidatePoolFactor
}

func (s *Service) normalize(p domain.RecommendationParams) request {
	storeName := strings.TrimSpace(p.StoreName)
	ownedIDs, owned := normalizeOwnedIDs(p.OwnedCardIDs)

	return request{
		storeID:   p.StoreID,
		storeName: storeName,
		category:  NormalizeCategory(p.StoreCategory),
		ownedIDs:  ownedIDs,
		owned:     owned,
		discover:  p.Discover,
		keywords:  sanitizeKeywords(storeName, p.LocationKeywords),
		limit:     clampLimit(p.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit),
	}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// NormalizeCategory returns the canonical upper-case category, or "" when
// the label is blank.
func NormalizeCategory(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// normalizeOwnedIDs keeps positive ids once each, in first-seen order.
func normalizeOwnedIDs(ids []int64) ([]int64, map[int64]struct{}) {
	set := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	return out, set
}

// sanitizeKeywords merges the store name with caller keywords, lower-cased
// and de-duplicated in first-seen order.
func sanitizeKeywords(storeName string, keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords)+1)
	out := make([]string, 0, len(keywords)+1)

	add := func(raw string) {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if kw == "" {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}

	add(storeName)
	for _, kw := range keywords {
		add(kw)
	}
	return out
}

type cacheKeyMaterial struct {
	StoreID            int64    `json:"storeId"`
	NormalizedCategory *string  `json:"normalizedCategory"`
	Discover           bool     `json:"discover"`
	OwnedIDs           []int64  `json:"ownedIds"`
	Keywords           []string `json:"keywords"`
	Limit              int      `json:"limit"`
}

// cacheKey digests the fields that determine a computation's output. Owned
// ids are sorted so input order and duplicates never split the cache.
func cacheKey(r request) string {
	owned := slices.Clone(r.ownedIDs)
	slices.Sort(owned)

	var category *string
	if r.category != "" {
		c := r.category
		category = &c
	}

	raw, _ := json.Marshal(cacheKeyMaterial{
		StoreID:            r.storeID,
		NormalizedCategory: category,
		Discover:           r.discover,
		OwnedIDs:           owned,
		Keywords:           r.keywords,
		Limit:              r.limit,
	})

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
