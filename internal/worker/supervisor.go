package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ntousis/aeolus-api/internal/cache"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/inference"
	"github.com/ntousis/aeolus-api/internal/pipeline"
	"github.com/ntousis/aeolus-api/pkg/types"
	"github.com/rs/zerolog"
)

// resolution of the re-aggregated buckets inside the rolling window
const refreshBucket = time.Hour

// Supervisor periodically checks the model server and re-aggregates the
// rolling window of stored readings into warm per-site aggregate caches.
type Supervisor struct {
	Store     *db.DB
	Cache     cache.Cache
	Inference *inference.Client
	Interval  time.Duration
	Window    time.Duration
	logger    zerolog.Logger
	cancelCtx context.CancelFunc
}

// NewSupervisor creates a new background worker for aggregate refresh and
// model-server supervision.
func NewSupervisor(store *db.DB, c cache.Cache, inf *inference.Client, interval, window time.Duration, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		Store:     store,
		Cache:     c,
		Inference: inf,
		Interval:  interval,
		Window:    window,
		logger:    logger,
	}
}

func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelCtx = cancel

	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		s.logger.Info().Msg("supervisor started")

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("supervisor stopped")
				return
			case <-ticker.C:
				s.checkModelServer(ctx)
				if err := s.refreshAggregates(ctx); err != nil {
					s.logger.Error().Err(err).Msg("aggregate refresh failed")
				}
			}
		}
	}()
}

// Stop gracefully stops the background worker.
func (s *Supervisor) Stop() {
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
}

func (s *Supervisor) checkModelServer(ctx context.Context) {
	if s.Inference == nil {
		return
	}
	if err := s.Inference.Health(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("model server degraded; predictions fall back to exact-only")
	}
}

// refreshAggregates re-runs the temporal aggregation over each site's
// rolling window of stored readings and caches the summarized result under
// the key the read path checks first.
func (s *Supervisor) refreshAggregates(ctx context.Context) error {
	sites, err := s.Store.GetSites()
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	now := time.Now().UTC()
	from := now.Add(-s.Window)

	for _, site := range sites {
		records := s.windowRecords(site, from, now)
		if len(records) == 0 {
			continue
		}

		rows, err := pipeline.Aggregate(records, refreshBucket)
		if err != nil {
			s.logger.Error().Err(err).
				Str("site_id", site.SiteID.String()).
				Msg("window aggregation failed")
			continue
		}

		for _, p := range types.AllPollutants {
			agg, ok := summarize(rows, p, now)
			if !ok {
				continue
			}

			key := cache.AggregateKey(site.SiteID.String(), p, now)
			if err := s.Cache.StoreAggregate(ctx, key, agg, s.Interval*2); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("failed to warm aggregate cache")
			}
		}
	}

	return nil
}

// windowRecords rebuilds cleaned records from a site's stored readings so
// the shared aggregation pipeline can bucket them.
func (s *Supervisor) windowRecords(site types.Site, from, to time.Time) []types.CleanedRecord {
	var records []types.CleanedRecord

	for _, p := range types.AllPollutants {
		entries, err := s.Store.GetReadings(site.SiteID.String(), p, from, to)
		if err != nil {
			s.logger.Error().Err(err).
				Str("site_id", site.SiteID.String()).
				Str("pollutant", string(p)).
				Msg("failed to read window")
			continue
		}

		for _, e := range entries {
			records = append(records, types.CleanedRecord{
				Location:   site.Location,
				Country:    site.Country,
				City:       site.City,
				Latitude:   site.Latitude,
				Longitude:  site.Longitude,
				SourceName: site.SourceName,
				Timestamp:  e.Timestamp,
				Pollutant:  p,
				ValueStd:   e.Value,
			})
		}
	}

	return records
}

// summarize folds the pollutant's bucket means into one window aggregate.
// ok=false when no bucket carries the pollutant.
func summarize(rows []types.AggregatedRow, p types.Pollutant, at time.Time) (types.Aggregate, bool) {
	var (
		sum      float64
		min, max float64
		count    int
	)

	for _, row := range rows {
		v, ok := row.Values[p]
		if !ok {
			continue
		}
		if count == 0 || v < min {
			min = v
		}
		if count == 0 || v > max {
			max = v
		}
		sum += v
		count++
	}

	if count == 0 {
		return types.Aggregate{}, false
	}

	return types.Aggregate{
		Avg:       sum / float64(count),
		Min:       min,
		Max:       max,
		Count:     count,
		Timestamp: at,
	}, true
}
