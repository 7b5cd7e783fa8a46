package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
)

func groupKey(source, location string, lat, lon *float64, bucket time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		source, location, formatCoord(lat), formatCoord(lon), bucket.UnixNano())
}

// ErrNoGroupKey reports a structural defect: the dataset carries neither a
// source-qualified nor a location-based grouping identity.
var ErrNoGroupKey = errors.New("no usable grouping key: location missing from every record")

// Aggregate buckets cleaned records into the given time resolution, averages
// duplicate readings per (site identity, pollutant, bucket) and pivots to one
// row per identity and bucket with one value per pollutant.
//
// The grouping key prefers (source_name, location, latitude, longitude); when
// no record in the whole dataset carries a source_name it falls back to
// (location, latitude, longitude). The decision is made once per dataset, not
// per row, so one run never mixes key shapes.
func Aggregate(records []types.CleanedRecord, bucketSize time.Duration) ([]types.AggregatedRow, error) {
	if len(records) == 0 {
		return nil, nil
	}

	useSource := false
	hasLocation := false
	for _, r := range records {
		if r.SourceName != "" {
			useSource = true
		}
		if r.Location != "" {
			hasLocation = true
		}
	}
	if !hasLocation {
		return nil, ErrNoGroupKey
	}

	type accum struct {
		row    types.AggregatedRow
		sums   map[types.Pollutant]float64
		counts map[types.Pollutant]int
	}

	groups := make(map[string]*accum)
	order := make([]string, 0)

	for _, r := range records {
		bucket := r.Timestamp.Truncate(bucketSize)

		source := ""
		if useSource {
			source = r.SourceName
		}
		key := groupKey(source, r.Location, r.Latitude, r.Longitude, bucket)

		g, ok := groups[key]
		if !ok {
			g = &accum{
				row: types.AggregatedRow{
					SourceName: source,
					Location:   r.Location,
					Latitude:   r.Latitude,
					Longitude:  r.Longitude,
					Bucket:     bucket,
					Values:     make(map[types.Pollutant]float64),
				},
				sums:   make(map[types.Pollutant]float64),
				counts: make(map[types.Pollutant]int),
			}
			groups[key] = g
			order = append(order, key)
		}

		// first non-absent descriptive value wins within the group
		if g.row.Country == "" {
			g.row.Country = r.Country
		}
		if g.row.City == "" {
			g.row.City = r.City
		}

		g.sums[r.Pollutant] += r.ValueStd
		g.counts[r.Pollutant]++
	}

	rows := make([]types.AggregatedRow, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		for p, n := range g.counts {
			g.row.Values[p] = g.sums[p] / float64(n)
		}
		rows = append(rows, g.row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Bucket.Equal(rows[j].Bucket) {
			return rows[i].Bucket.Before(rows[j].Bucket)
		}
		if rows[i].SourceName != rows[j].SourceName {
			return rows[i].SourceName < rows[j].SourceName
		}
		return rows[i].Location < rows[j].Location
	})

	return rows, nil
}
