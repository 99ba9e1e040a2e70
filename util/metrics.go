package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	handsStartedCounter prometheus.Counter
	handsSettledCounter prometheus.Counter
	actionsCounter      *prometheus.CounterVec
	rejectedCounter     *prometheus.CounterVec
	timeoutsCounter     *prometheus.CounterVec
	activeTablesGauge   prometheus.Gauge
	potSizeHistogram    prometheus.Histogram
}

func (m *metrics) HandStarted() {
	m.handsStartedCounter.Inc()
}

func (m *metrics) HandSettled(pot uint64) {
	m.handsSettledCounter.Inc()
	m.potSizeHistogram.Observe(float64(pot))
}

func (m *metrics) ActionApplied(action string) {
	m.actionsCounter.WithLabelValues(action).Inc()
}

// TransitionRejected counts rejected calls by operation and error class.
func (m *metrics) TransitionRejected(operation string, class string) {
	m.rejectedCounter.WithLabelValues(operation, class).Inc()
}

func (m *metrics) TimeoutForced(purpose string) {
	m.timeoutsCounter.WithLabelValues(purpose).Inc()
}

func (m *metrics) SetActiveTables(count int) {
	m.activeTablesGauge.Set(float64(count))
}

var Metrics = &metrics{
	handsStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "hands_started_total",
		Help: "Total number of hands started",
	}),
	handsSettledCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "hands_settled_total",
		Help: "Total number of hands settled",
	}),
	actionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_actions_total",
		Help: "Total number of player actions applied, by action",
	}, []string{"action"}),
	rejectedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transitions_rejected_total",
		Help: "Total number of rejected transitions, by operation and error class",
	}, []string{"operation", "class"}),
	timeoutsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timeouts_forced_total",
		Help: "Total number of forced timeouts, by purpose",
	}, []string{"purpose"}),
	activeTablesGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_tables_count",
		Help: "Count of tables with a hand in progress",
	}),
	potSizeHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settled_pot_chips",
		Help:    "Pot size at settlement in chips",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	}),
}
