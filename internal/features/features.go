// Package features derives model input features from standardized readings:
// calendar features, per-pollutant missingness flags and lagged values. The
// choice of columns belongs to the trained model; this package only fills
// whatever column list the caller supplies.
package features

import (
	"fmt"
	"sort"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
)

// Vector is a named feature vector. A nil value marks a feature the caller
// could not supply; the model side imputes those.
type Vector map[string]*float64

// TimeFeatures are the calendar components used as model inputs.
// DayOfWeek is zero-based with Monday = 0.
type TimeFeatures struct {
	Hour      int
	DayOfWeek int
	Month     int
}

func TimeFeaturesOf(t time.Time) TimeFeatures {
	return TimeFeatures{
		Hour:      t.Hour(),
		DayOfWeek: (int(t.Weekday()) + 6) % 7,
		Month:     int(t.Month()),
	}
}

// baseRow holds every column this package can derive from one observation:
// coordinates, calendar features, one column per pollutant and the
// "<pollutant>_is_missing" flags.
func baseRow(lat, lon float64, ts time.Time, standardized map[types.Pollutant]*float64) Vector {
	row := make(Vector)

	tf := TimeFeaturesOf(ts)
	row["latitude"] = ptr(lat)
	row["longitude"] = ptr(lon)
	row["hour"] = ptr(float64(tf.Hour))
	row["day_of_week"] = ptr(float64(tf.DayOfWeek))
	row["month"] = ptr(float64(tf.Month))

	for _, p := range types.AllPollutants {
		v := standardized[p]
		row[string(p)] = v
		missing := 0.0
		if v == nil {
			missing = 1.0
		}
		row[string(p)+"_is_missing"] = ptr(missing)
	}

	return row
}

// BuildVector assembles the feature vector for one observation against the
// trained column list; any trained column this package cannot derive (lags
// included) is emitted as missing.
func BuildVector(lat, lon float64, ts time.Time, standardized map[types.Pollutant]*float64, featureCols []string) Vector {
	row := baseRow(lat, lon, ts, standardized)

	out := make(Vector, len(featureCols))
	for _, col := range featureCols {
		out[col] = row[col] // absent trained columns stay nil
	}
	return out
}

// TrainingMatrix derives one full feature row per aggregated bucket,
// including lagged pollutant columns. Unlike BuildVector there is no trained
// column list to filter against; the matrix defines the columns the trainer
// will see.
func TrainingMatrix(rows []types.AggregatedRow, lags []int) []Vector {
	lagCols := LagValues(rows, lags)

	out := make([]Vector, len(rows))
	for i, row := range rows {
		standardized := make(map[types.Pollutant]*float64, len(row.Values))
		for p := range row.Values {
			v := row.Values[p]
			standardized[p] = &v
		}

		var lat, lon float64
		if row.Latitude != nil {
			lat = *row.Latitude
		}
		if row.Longitude != nil {
			lon = *row.Longitude
		}

		vec := baseRow(lat, lon, row.Bucket, standardized)
		for col, v := range lagCols[i] {
			vec[col] = ptr(v)
		}
		out[i] = vec
	}

	return out
}

// LagValues computes lagged pollutant columns ("<pollutant>_lag<n>") over
// aggregated rows. Rows are grouped by site identity and ordered by bucket;
// the first rows of each group have no history and get no lag keys.
func LagValues(rows []types.AggregatedRow, lags []int) []map[string]float64 {
	type indexed struct {
		pos int
		row types.AggregatedRow
	}

	groups := make(map[string][]indexed)
	for i, row := range rows {
		key := fmt.Sprintf("%s|%s", row.SourceName, row.Location)
		groups[key] = append(groups[key], indexed{i, row})
	}

	out := make([]map[string]float64, len(rows))
	for i := range out {
		out[i] = make(map[string]float64)
	}

	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].row.Bucket.Before(group[j].row.Bucket)
		})
		for i, entry := range group {
			for _, lag := range lags {
				if i-lag < 0 {
					continue
				}
				prev := group[i-lag].row
				for p, v := range prev.Values {
					out[entry.pos][fmt.Sprintf("%s_lag%d", p, lag)] = v
				}
			}
		}
	}

	return out
}

func ptr(v float64) *float64 { return &v }
