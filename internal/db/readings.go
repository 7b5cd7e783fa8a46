package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gocql/gocql"
	"github.com/ntousis/aeolus-api/internal/metrics"
	"github.com/ntousis/aeolus-api/pkg/types"
	"gopkg.in/inf.v0"
)

// StoreReading persists one cleaned reading under its site, partitioned by
// pollutant and day bucket.
func (db *DB) StoreReading(siteID gocql.UUID, rec types.CleanedRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bucket := time.Date(
		rec.Timestamp.Year(), rec.Timestamp.Month(), rec.Timestamp.Day(),
		0, 0, 0, 0, time.UTC,
	)

	query := db.Data.Query(`
INSERT INTO readings (site_id, pollutant, bucket_date, timestamp, value, unit)
VALUES (?, ?, ?, ?, ?, ?)
`, siteID, string(rec.Pollutant), bucket, rec.Timestamp, rec.ValueStd, rec.UnitStd).WithContext(ctx)

	start := time.Now()
	if err := query.Exec(); err != nil {
		return err
	}
	metrics.DbWriteLatencySeconds.WithLabelValues("readings_insert").Observe(time.Since(start).Seconds())

	return nil
}

// GetReadings returns all standardized readings for one site and pollutant
// between two timestamps, possibly spanning multiple bucket_dates.
func (db *DB) GetReadings(siteID string, pollutant types.Pollutant, from, to time.Time) ([]types.Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sid, err := gocql.ParseUUID(siteID)
	if err != nil {
		return nil, fmt.Errorf("invalid site_id: %w", err)
	}

	if _, err := types.ToPollutant(string(pollutant)); err != nil {
		return nil, err
	}

	readings := make([]types.Entry, 0, 256)

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	queryStart := time.Now()

	// walk all day buckets between from and to
	for date := start; !date.After(end); date = date.Add(24 * time.Hour) {
		bucket := date

		iter := db.Data.Query(`
SELECT timestamp, value
FROM readings
WHERE site_id = ? AND pollutant = ? AND bucket_date = ? AND timestamp >= ? AND timestamp <= ?
ORDER BY timestamp DESC
`, sid, string(pollutant), bucket, from, to).WithContext(ctx).Iter()

		var (
			ts time.Time
			v  float64
		)
		for iter.Scan(&ts, &v) {
			readings = append(readings, types.Entry{Timestamp: ts, Value: v})
		}

		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("failed to query bucket %s: %w", bucket, err)
		}
	}

	metrics.DbReadLatencySeconds.WithLabelValues("readings_range").Observe(time.Since(queryStart).Seconds())

	return readings, nil
}

// GetLastValues returns the most recent readings for one site, pollutant
// and day bucket, newest first.
func (db *DB) GetLastValues(siteID string, pollutant types.Pollutant, date string, n int) ([]types.Entry, error) {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Millisecond*500,
	)
	defer cancel()

	sid, err := gocql.ParseUUID(siteID)
	if err != nil {
		return nil, fmt.Errorf("invalid site_id: %w", err)
	}

	query := db.Data.Query(`
SELECT timestamp, value
FROM readings
WHERE site_id = ?
AND pollutant = ?
AND bucket_date = ?
ORDER BY timestamp DESC LIMIT ?
`, sid, string(pollutant), date, n).WithContext(ctx)

	var results []types.Entry
	iter := query.Iter()

	var ts time.Time
	var dec *inf.Dec

	for iter.Scan(&ts, &dec) {
		val, _ := strconv.ParseFloat(dec.String(), 64)
		results = append(results, types.Entry{
			Timestamp: ts,
			Value:     val,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}
