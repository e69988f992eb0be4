package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets are in milliseconds. Gateway round trips dominate, so the
// range is dense between 100ms and 5s and stops at the 30s client timeout.
var LatencyBuckets = []float64{
	10, 25, 50, 100, 200, 300, 500, 750,
	1000, 1500, 2000, 3000, 5000,
	10000, 20000, 30000,
}

// Metric describes a labelled collector before it is registered.
type Metric struct {
	Name        string
	Description string
	Type        string
	Args        []string
}

// NewMetric builds the collector for m. Only the vector kinds are used here.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	switch m.Type {
	case "counter_vec":
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
		}, m.Args)
	case "histogram_vec":
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
			Buckets:   LatencyBuckets,
		}, m.Args)
	case "summary_vec":
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Subsystem: subsystem,
			Name:      m.Name,
			Help:      m.Description,
		}, m.Args)
	}
	return nil
}

// MetricsBusinessProcess times the steps of order creation and verification
// (gateway fetches, ledger writes) by pipeline type and step.
var MetricsBusinessProcess = &Metric{
	Name:        "bp_dur",
	Description: "payment pipeline latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

// RefererKey lets the web client tag which page issued a request.
const RefererKey = "X-Referer"
