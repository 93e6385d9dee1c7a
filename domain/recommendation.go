package domain

// ScoreSource tells which scorer produced a ScoredEntry.
type ScoreSource string

const (
	ScoreSourceLocation ScoreSource = "location"
	ScoreSourceLLM      ScoreSource = "llm"
	ScoreSourceFallback ScoreSource = "fallback"
)

// Priority orders sources for tie-breaking: lower wins.
func (s ScoreSource) Priority() int {
	switch s {
	case ScoreSourceLocation:
		return 0
	case ScoreSourceLLM:
		return 1
	default:
		return 2
	}
}

type RecommendationParams struct {
	StoreID          int64
	StoreName        string
	StoreCategory    string
	OwnedCardIDs     []int64
	Discover         bool
	LocationKeywords []string
	Limit            int
}

type ScoredEntry struct {
	CardID               int64       `json:"cardId"`
	CardName             string      `json:"cardName"`
	Issuer               string      `json:"issuer"`
	NormalizedCategories []string    `json:"normalizedCategories"`
	Score                int         `json:"score"`
	ScoreSource          ScoreSource `json:"scoreSource"`
	Rationale            string      `json:"rationale"`
}

type ScoreSourceTally struct {
	Location int `json:"location"`
	LLM      int `json:"llm"`
	Fallback int `json:"fallback"`
}

func (t *ScoreSourceTally) Add(src ScoreSource) {
	switch src {
	case ScoreSourceLocation:
		t.Location++
	case ScoreSourceLLM:
		t.LLM++
	default:
		t.Fallback++
	}
}

func (t ScoreSourceTally) Total() int {
	return t.Location + t.LLM + t.Fallback
}

type RecommendationMeta struct {
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Discover     bool             `json:"discover"`
	StoreID      int64            `json:"storeId"`
	LatencyMs    int64            `json:"latencyMs"`
	Cached       bool             `json:"cached"`
	ScoreSources ScoreSourceTally `json:"scoreSources"`
}

type RecommendationResult struct {
	Data []ScoredEntry      `json:"data"`
	Meta RecommendationMeta `json:"meta"`
}

type StreamEventType string

const (
	StreamEventHeartbeat StreamEventType = "heartbeat"
	StreamEventCard      StreamEventType = "card"
	StreamEventDone      StreamEventType = "done"
	StreamEventError     StreamEventType = "error"
)

// StreamEvent is one frame of an incremental recommendation stream.
// Data holds a ScoredEntry for card events, a RecommendationMeta for done
// events and a StreamError for error events.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Data any             `json:"data"`
}

type StreamError struct {
	Message string `json:"message"`
}
