package harvest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	regionFetchesTotal *prometheus.CounterVec
	climbsTotal        prometheus.Counter
	oversizeAtCapTotal prometheus.Counter

	metricsOnce sync.Once
)

// InitMetrics initializes the controller's Prometheus collectors. It is safe
// to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		regionFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_controller_region_fetches_total",
				Help: "Bounded region fetch attempts by outcome.",
			},
			[]string{"outcome"},
		)
		climbsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_controller_climbs_total",
				Help: "Total leaf records gathered by the controller.",
			},
		)
		oversizeAtCapTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_controller_oversize_at_cap_total",
				Help: "Regions still oversized at the split depth cap (coverage gap).",
			},
		)
	})
}

func observeRegionFetch(outcome string) {
	if regionFetchesTotal != nil {
		regionFetchesTotal.WithLabelValues(outcome).Inc()
	}
}

func observeRecords(n int) {
	if climbsTotal != nil && n > 0 {
		climbsTotal.Add(float64(n))
	}
}

func observeOversizeAtCap() {
	if oversizeAtCapTotal != nil {
		oversizeAtCapTotal.Inc()
	}
}
