package oracle

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const defaultScore = 60

var firstInteger = regexp.MustCompile(`-?\d+`)

type scorePayload struct {
	Score     json.RawMessage `json:"score"`
	Rationale string          `json:"rationale"`
}

// parseScore prefers a JSON {score, rationale} body, then the first integer
// in free text, then defaultScore. The result is always within [0,100].
func parseScore(text string) (Score, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Score{}, newError(KindParsing, ErrEmptyResponse)
	}

	body := stripCodeFence(trimmed)

	var payload scorePayload
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		score, ok := scoreFromJSON(payload.Score)
		if !ok {
			score = defaultScore
		}
		rationale := strings.TrimSpace(payload.Rationale)
		if rationale == "" {
			rationale = body
		}
		return Score{Score: Clamp(score), Rationale: rationale}, nil
	}

	score := defaultScore
	if m := firstInteger.FindString(trimmed); m != "" {
		if v, ok := atoiClamped(m); ok {
			score = v
		}
	}

	return Score{Score: Clamp(score), Rationale: trimmed}, nil
}

func scoreFromJSON(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		// bound before converting so huge values cannot overflow int
		num = math.Max(0, math.Min(100, num))
		return int(math.Round(num)), true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if m := firstInteger.FindString(str); m != "" {
			if v, ok := atoiClamped(m); ok {
				return v, true
			}
		}
	}

	return 0, false
}

// stripCodeFence removes a surrounding ```json ... ``` block, which chat
// models add even when told not to.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// atoiClamped parses a matched integer, saturating out-of-range values to
// the score bounds by sign.
func atoiClamped(m string) (int, bool) {
	v, err := strconv.Atoi(m)
	if err == nil {
		return Clamp(v), true
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(m, "-") {
			return 0, true
		}
		return 100, true
	}
	return 0, false
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
