package executor

import (
	"time"

	"github.com/caffeineduck/gorc/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

var (
	invocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gorc_invocations_total", Help: "contract invocations by outcome"},
		[]string{"outcome"},
	)

	invocationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gorc_invocation_duration_seconds",
			Help:    "contract invocation latency.",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gorc_loads_total", Help: "contract loads by outcome"},
		[]string{"outcome"},
	)

	activeInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "gorc_active_instances", Help: "instances not yet closed"},
	)
)

func init() {
	prometheus.MustRegister(
		invocationsTotal,
		invocationDuration,
		loadsTotal,
		activeInstances,
	)
}

func observeInvocation(d time.Duration, err error) {
	invocationsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	invocationDuration.Observe(d.Seconds())
}

// outcomeLabel keeps label cardinality bounded by the error taxonomy.
func outcomeLabel(err error) string {
	if err == nil {
		return outcomeOK
	}
	if _, kind, ok := errors.Classify(err); ok {
		return string(kind)
	}
	return "error"
}
