package features

import (
	"testing"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
)

func TestTimeFeaturesOf(t *testing.T) {
	// 2024-03-01 was a Friday
	tf := TimeFeaturesOf(time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC))
	if tf.Hour != 14 {
		t.Errorf("hour = %d, want 14", tf.Hour)
	}
	if tf.DayOfWeek != 4 {
		t.Errorf("day_of_week = %d, want 4 (Friday, Monday=0)", tf.DayOfWeek)
	}
	if tf.Month != 3 {
		t.Errorf("month = %d, want 3", tf.Month)
	}

	// Monday maps to 0
	tf = TimeFeaturesOf(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	if tf.DayOfWeek != 0 {
		t.Errorf("Monday day_of_week = %d, want 0", tf.DayOfWeek)
	}
}

func TestBuildVector(t *testing.T) {
	v := 35.4
	standardized := map[types.Pollutant]*float64{
		types.PollutantPM25: &v,
	}
	cols := []string{"pm25", "pm10", "pm25_is_missing", "pm10_is_missing", "hour", "latitude", "pm25_lag1"}

	ts := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	vec := BuildVector(28.6, 77.2, ts, standardized, cols)

	if len(vec) != len(cols) {
		t.Fatalf("vector has %d entries, want %d", len(vec), len(cols))
	}
	if vec["pm25"] == nil || *vec["pm25"] != 35.4 {
		t.Errorf("pm25 = %v, want 35.4", vec["pm25"])
	}
	if vec["pm10"] != nil {
		t.Errorf("pm10 = %v, want missing", *vec["pm10"])
	}
	if *vec["pm25_is_missing"] != 0 || *vec["pm10_is_missing"] != 1 {
		t.Error("missingness flags wrong")
	}
	if *vec["hour"] != 6 || *vec["latitude"] != 28.6 {
		t.Error("scalar features wrong")
	}
	if vec["pm25_lag1"] != nil {
		t.Error("untrained lag column should be emitted as missing")
	}
}

func TestTrainingMatrix(t *testing.T) {
	lat, lon := 28.6, 77.2
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	rows := []types.AggregatedRow{
		{Location: "A", Latitude: &lat, Longitude: &lon, Bucket: day(1),
			Values: map[types.Pollutant]float64{types.PollutantPM25: 10}},
		{Location: "A", Latitude: &lat, Longitude: &lon, Bucket: day(2),
			Values: map[types.Pollutant]float64{types.PollutantPM25: 20, types.PollutantO3: 0.05}},
	}

	matrix := TrainingMatrix(rows, []int{1})
	if len(matrix) != 2 {
		t.Fatalf("got %d rows, want 2", len(matrix))
	}

	first, second := matrix[0], matrix[1]
	if *first["pm25"] != 10 || *first["latitude"] != 28.6 {
		t.Error("first row values wrong")
	}
	if first["o3"] != nil || *first["o3_is_missing"] != 1 {
		t.Error("first row should mark o3 missing")
	}
	if _, ok := first["pm25_lag1"]; ok {
		t.Error("first bucket has no history, lag column must be absent")
	}
	if second["pm25_lag1"] == nil || *second["pm25_lag1"] != 10 {
		t.Errorf("pm25_lag1 = %v, want 10", second["pm25_lag1"])
	}
	if *second["o3"] != 0.05 || *second["o3_is_missing"] != 0 {
		t.Error("second row o3 wrong")
	}
}

func TestLagValues(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	rows := []types.AggregatedRow{
		{Location: "A", Bucket: day(1), Values: map[types.Pollutant]float64{types.PollutantPM25: 10}},
		{Location: "A", Bucket: day(2), Values: map[types.Pollutant]float64{types.PollutantPM25: 20}},
		{Location: "B", Bucket: day(2), Values: map[types.Pollutant]float64{types.PollutantPM25: 99}},
	}

	lagged := LagValues(rows, []int{1})

	if len(lagged[0]) != 0 {
		t.Errorf("first row of group should have no lags: %v", lagged[0])
	}
	if got := lagged[1]["pm25_lag1"]; got != 10 {
		t.Errorf("pm25_lag1 = %v, want 10", got)
	}
	if len(lagged[2]) != 0 {
		t.Errorf("other group leaked into lags: %v", lagged[2])
	}
}
