package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OracleCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_oracle_calls_total",
			Help: "Scoring oracle attempts by outcome (ok or failure kind).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(OracleCallsTotal)
}

func observeCall(kind Kind) {
	OracleCallsTotal.WithLabelValues(string(kind)).Inc()
}

func observeOutcome(err error) {
	if err == nil {
		OracleCallsTotal.WithLabelValues("ok").Inc()
		return
	}
	observeCall(KindOf(err))
}
