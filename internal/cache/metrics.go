package cache

import (
	"time"

	"github.com/ntousis/aeolus-api/internal/metrics"
)

const tracerName = "aeolus-cache"

// driverMetrics funnels per-driver hit/miss/latency observations into the
// shared prometheus collectors.
type driverMetrics struct {
	driver string
}

func newDriverMetrics(driver string) *driverMetrics {
	return &driverMetrics{driver}
}

func (dm *driverMetrics) hit(start time.Time) {
	metrics.CacheHitsTotal.WithLabelValues(dm.driver).Inc()
	metrics.CacheReadLatencySeconds.WithLabelValues(dm.driver).Observe(time.Since(start).Seconds())
}

func (dm *driverMetrics) miss() {
	metrics.CacheMissesTotal.WithLabelValues(dm.driver).Inc()
}

func (dm *driverMetrics) write(start time.Time) {
	metrics.CacheWriteLatencySeconds.WithLabelValues(dm.driver).Observe(time.Since(start).Seconds())
}
