package aqi

import (
	"math"
	"testing"

	"github.com/ntousis/aeolus-api/pkg/types"
)

func TestValidateTables(t *testing.T) {
	if err := ValidateTables(); err != nil {
		t.Fatalf("reference tables failed validation: %v", err)
	}
}

func TestValidateTiersRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		tiers []Breakpoint
	}{
		{"inverted interval", []Breakpoint{{12.0, 0.0, 0, 50}}},
		{"overlap", []Breakpoint{{0, 12.0, 0, 50}, {11.9, 35.4, 51, 100}}},
		{"gap", []Breakpoint{{0, 12.0, 0, 50}, {14.0, 35.4, 51, 100}}},
		{"index hole", []Breakpoint{{0, 12.0, 0, 50}, {12.1, 35.4, 52, 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateTiers(tt.tiers); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSubIndexKnownValues(t *testing.T) {
	tests := []struct {
		name      string
		pollutant types.Pollutant
		value     float64
		unit      string
		want      float64
		defined   bool
	}{
		{"pm25 tier boundary", types.PollutantPM25, 35.4, "", 100, true},
		{"pm25 lower tier 2", types.PollutantPM25, 12.1, "", 51, true},
		{"pm25 zero", types.PollutantPM25, 0, "", 0, true},
		{"pm25 above table", types.PollutantPM25, 500.5, "", 0, false},
		{"pm25 negative", types.PollutantPM25, -1, "", 0, false},
		{"o3 ppb converted", types.PollutantO3, 70, "ppb", 100, true},
		{"co top of table", types.PollutantCO, 50.4, "", 500, true},
		{"unknown pollutant", types.Pollutant("nh3"), 10, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SubIndex(tt.pollutant, tt.value, tt.unit)
			if ok != tt.defined {
				t.Fatalf("defined = %v, want %v", ok, tt.defined)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SubIndex = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubIndexContinuityAtTierBoundaries(t *testing.T) {
	for _, p := range types.AllPollutants {
		tiers, _ := Tiers(p)
		for i, bp := range tiers {
			high, ok := SubIndex(p, bp.ConcHigh, "")
			if !ok || math.Abs(high-float64(bp.IndexHigh)) > 1e-9 {
				t.Errorf("%s tier %d: SubIndex(%v) = %v, want %v", p, i, bp.ConcHigh, high, bp.IndexHigh)
			}
			low, ok := SubIndex(p, bp.ConcLow, "")
			if !ok || math.Abs(low-float64(bp.IndexLow)) > 1e-9 {
				t.Errorf("%s tier %d: SubIndex(%v) = %v, want %v", p, i, bp.ConcLow, low, bp.IndexLow)
			}
		}
	}
}

func TestSubIndexMonotonicWithinTier(t *testing.T) {
	tiers, _ := Tiers(types.PollutantPM25)
	for _, bp := range tiers {
		prev := math.Inf(-1)
		for step := 0; step <= 10; step++ {
			v := bp.ConcLow + (bp.ConcHigh-bp.ConcLow)*float64(step)/10
			idx, ok := SubIndex(types.PollutantPM25, v, "")
			if !ok {
				t.Fatalf("value %v inside tier reported undefined", v)
			}
			if idx < prev {
				t.Errorf("sub-index decreased within tier at %v: %v < %v", v, idx, prev)
			}
			prev = idx
		}
	}
}

func TestComputeAQI(t *testing.T) {
	t.Run("no pollutants", func(t *testing.T) {
		if _, ok := ComputeAQI(nil, nil); ok {
			t.Error("empty reading should be undefined")
		}
	})

	t.Run("no defined sub-index", func(t *testing.T) {
		values := map[types.Pollutant]float64{types.PollutantPM25: 9999}
		if _, ok := ComputeAQI(values, nil); ok {
			t.Error("above-table reading should be undefined")
		}
	})

	t.Run("single pollutant passes through", func(t *testing.T) {
		values := map[types.Pollutant]float64{types.PollutantPM25: 35.4}
		got, ok := ComputeAQI(values, nil)
		if !ok || math.Abs(got-100) > 1e-9 {
			t.Fatalf("ComputeAQI = (%v, %v), want (100, true)", got, ok)
		}
		if c := Category(got); c != "Moderate" {
			t.Errorf("Category(%v) = %s, want Moderate", got, c)
		}
	})

	t.Run("max rule", func(t *testing.T) {
		values := map[types.Pollutant]float64{
			types.PollutantPM25: 12.0, // 50
			types.PollutantO3:   0.070,
			types.PollutantSO2:  75, // 100
		}
		got, ok := ComputeAQI(values, nil)
		if !ok || math.Abs(got-100) > 1e-9 {
			t.Errorf("ComputeAQI = (%v, %v), want (100, true)", got, ok)
		}
	})

	t.Run("units map applies", func(t *testing.T) {
		values := map[types.Pollutant]float64{types.PollutantO3: 70}
		units := map[types.Pollutant]string{types.PollutantO3: "ppb"}
		got, ok := ComputeAQI(values, units)
		if !ok || math.Abs(got-100) > 1e-9 {
			t.Errorf("ComputeAQI = (%v, %v), want (100, true)", got, ok)
		}
	})
}

func TestCategory(t *testing.T) {
	tests := []struct {
		aqi  float64
		want string
	}{
		{0, "Good"},
		{50, "Good"},
		{50.1, "Moderate"},
		{100, "Moderate"},
		{150, "Unhealthy for Sensitive Groups"},
		{200, "Unhealthy"},
		{300, "Very Unhealthy"},
		{301, "Hazardous"},
		{500, "Hazardous"},
		{742, "Hazardous"},
	}
	for _, tt := range tests {
		if got := Category(tt.aqi); got != tt.want {
			t.Errorf("Category(%v) = %s, want %s", tt.aqi, got, tt.want)
		}
	}
}
