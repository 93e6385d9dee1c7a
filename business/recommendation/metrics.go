package recommendation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScoreSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_recommend_score_source_total",
			Help: "Scored recommendation entries by score source.",
		},
		[]string{"source", "mode"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_recommend_cache_total",
			Help: "Recommendation cache lookups by result.",
		},
		[]string{"result"},
	)

	OracleSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "card_recommend_oracle_suppressed_total",
			Help: "Computations that stopped calling the scoring oracle after a failure.",
		},
	)
)

func init() {
	prometheus.MustRegister(ScoreSourceTotal, CacheLookupsTotal, OracleSuppressedTotal)
}

func modeLabel(discover bool) string {
	if discover {
		return "discover"
	}
	return "owned"
}
