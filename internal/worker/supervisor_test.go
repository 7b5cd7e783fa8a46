package worker

import (
	"testing"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []types.AggregatedRow{
		{Bucket: now.Add(-3 * time.Hour), Values: map[types.Pollutant]float64{types.PollutantPM25: 10, types.PollutantO3: 0.05}},
		{Bucket: now.Add(-2 * time.Hour), Values: map[types.Pollutant]float64{types.PollutantPM25: 30}},
		{Bucket: now.Add(-1 * time.Hour), Values: map[types.Pollutant]float64{types.PollutantPM25: 20}},
	}

	agg, ok := summarize(rows, types.PollutantPM25, now)
	if !ok {
		t.Fatal("expected a pm25 aggregate")
	}
	if agg.Avg != 20 || agg.Min != 10 || agg.Max != 30 || agg.Count != 3 {
		t.Errorf("aggregate = %+v", agg)
	}
	if !agg.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v", agg.Timestamp)
	}

	// only one bucket carries o3
	agg, ok = summarize(rows, types.PollutantO3, now)
	if !ok || agg.Count != 1 || agg.Avg != 0.05 {
		t.Errorf("o3 aggregate = %+v ok=%v", agg, ok)
	}

	if _, ok := summarize(rows, types.PollutantNO2, now); ok {
		t.Error("expected no aggregate for an absent pollutant")
	}
}
