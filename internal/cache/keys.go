package cache

import (
	"fmt"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
)

const dayLayout = "2006-01-02"

// ReadingKey addresses the time-series of standardized readings for one
// site, pollutant and UTC day. Day scoping keeps the hot set small and
// mirrors the storage layer's bucket_date partitioning.
func ReadingKey(siteID string, p types.Pollutant, at time.Time) string {
	return fmt.Sprintf("reading:%s:%s:%s", siteID, p, at.UTC().Format(dayLayout))
}

// AggregateKey addresses the cached rolling-window aggregate for one site,
// pollutant and UTC day.
func AggregateKey(siteID string, p types.Pollutant, at time.Time) string {
	return fmt.Sprintf("agg:%s:%s:%s", siteID, p, at.UTC().Format(dayLayout))
}
