package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		score     int
		rationale string
	}{
		{"json", `{"score": 82, "rationale": "3x on dining"}`, 82, "3x on dining"},
		{"json fenced", "```json\n{\"score\": 64, \"rationale\": \"fine\"}\n```", 64, "fine"},
		{"json string score", `{"score": "77", "rationale": "r"}`, 77, "r"},
		{"json fractional score", `{"score": 66.6, "rationale": "r"}`, 67, "r"},
		{"json without score", `{"rationale": "no number"}`, 60, "no number"},
		{"json over range", `{"score": 250, "rationale": "r"}`, 100, "r"},
		{"json beyond int range", `{"score": 1e20, "rationale": "r"}`, 100, "r"},
		{"json far negative", `{"score": -1e20, "rationale": "r"}`, 0, "r"},
		{"json string beyond int range", `{"score": "99999999999999999999", "rationale": "r"}`, 100, "r"},
		{"free text", "Score: 85/100 because of grocery bonus", 85, "Score: 85/100 because of grocery bonus"},
		{"free text negative", "rating -20", 0, "rating -20"},
		{"bare number", "91", 91, "91"},
		{"free text beyond int range", "score 99999999999999999999", 100, "score 99999999999999999999"},
		{"free text far negative", "score -99999999999999999999", 0, "score -99999999999999999999"},
		{"no digits", "pretty good card", 60, "pretty good card"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.rationale, got.Rationale)
		})
	}
}

func TestParseScoreEmpty(t *testing.T) {
	_, err := parseScore("\n\t ")
	require.Error(t, err)
	assert.Equal(t, KindParsing, KindOf(err))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-1))
	assert.Equal(t, 50, Clamp(50))
	assert.Equal(t, 100, Clamp(101))
}
