// Package aqi implements the US EPA Air Quality Index: unit conversion to
// the reference units of the breakpoint tables, piecewise-linear sub-index
// interpolation and the max-aggregation reporting rule.
package aqi

import (
	"fmt"

	"github.com/ntousis/aeolus-api/pkg/types"
)

// Breakpoint is one tier of a pollutant's table: a closed concentration
// interval mapped onto a closed index interval.
type Breakpoint struct {
	ConcLow   float64
	ConcHigh  float64
	IndexLow  int
	IndexHigh int
}

type table struct {
	Unit  string
	Tiers []Breakpoint
}

// US EPA AQI breakpoints. Tables are ordered ascending by concentration and
// loaded once; ValidateTables asserts contiguity at startup.
var breakpoints = map[types.Pollutant]table{
	types.PollutantPM25: {
		Unit: "ug/m3",
		Tiers: []Breakpoint{
			{0.0, 12.0, 0, 50},
			{12.1, 35.4, 51, 100},
			{35.5, 55.4, 101, 150},
			{55.5, 150.4, 151, 200},
			{150.5, 250.4, 201, 300},
			{250.5, 350.4, 301, 400},
			{350.5, 500.4, 401, 500},
		},
	},
	types.PollutantPM10: {
		Unit: "ug/m3",
		Tiers: []Breakpoint{
			{0, 54, 0, 50},
			{55, 154, 51, 100},
			{155, 254, 101, 150},
			{255, 354, 151, 200},
			{355, 424, 201, 300},
			{425, 504, 301, 400},
			{505, 604, 401, 500},
		},
	},
	types.PollutantO3: {
		Unit: "ppm",
		Tiers: []Breakpoint{
			{0.000, 0.054, 0, 50},
			{0.055, 0.070, 51, 100},
			{0.071, 0.085, 101, 150},
			{0.086, 0.105, 151, 200},
			{0.106, 0.200, 201, 300},
			{0.201, 0.604, 301, 500},
		},
	},
	types.PollutantCO: {
		Unit: "ppm",
		Tiers: []Breakpoint{
			{0.0, 4.4, 0, 50},
			{4.5, 9.4, 51, 100},
			{9.5, 12.4, 101, 150},
			{12.5, 15.4, 151, 200},
			{15.5, 30.4, 201, 300},
			{30.5, 40.4, 301, 400},
			{40.5, 50.4, 401, 500},
		},
	},
	types.PollutantSO2: {
		Unit: "ppb",
		Tiers: []Breakpoint{
			{0, 35, 0, 50},
			{36, 75, 51, 100},
			{76, 185, 101, 150},
			{186, 304, 151, 200},
			{305, 604, 201, 300},
			{605, 804, 301, 400},
			{805, 1004, 401, 500},
		},
	},
	types.PollutantNO2: {
		Unit: "ppb",
		Tiers: []Breakpoint{
			{0, 53, 0, 50},
			{54, 100, 51, 100},
			{101, 360, 101, 150},
			{361, 649, 151, 200},
			{650, 1249, 201, 300},
			{1250, 1649, 301, 400},
			{1650, 2049, 401, 500},
		},
	},
}

// CanonicalUnit returns the unit a pollutant's breakpoint table is defined in.
func CanonicalUnit(p types.Pollutant) (string, bool) {
	t, ok := breakpoints[p]
	if !ok {
		return "", false
	}
	return t.Unit, true
}

// Tiers returns the ordered breakpoint tiers for a pollutant.
func Tiers(p types.Pollutant) ([]Breakpoint, bool) {
	t, ok := breakpoints[p]
	if !ok {
		return nil, false
	}
	return t.Tiers, true
}

// ValidateTables checks every table for transcription errors: non-empty,
// closed intervals, ascending order, no gap or overlap between consecutive
// tiers. The EPA tables step by one unit of rounding precision between
// tiers, so the concentration gap must be positive and at most 1.
func ValidateTables() error {
	for _, p := range types.AllPollutants {
		t, ok := breakpoints[p]
		if !ok || len(t.Tiers) == 0 {
			return fmt.Errorf("breakpoints: empty table for %s", p)
		}
		if err := validateTiers(t.Tiers); err != nil {
			return fmt.Errorf("breakpoints: %s: %w", p, err)
		}
	}
	return nil
}

func validateTiers(tiers []Breakpoint) error {
	for i, bp := range tiers {
		if bp.ConcLow > bp.ConcHigh {
			return fmt.Errorf("tier %d: concentration interval inverted", i)
		}
		if bp.IndexLow > bp.IndexHigh {
			return fmt.Errorf("tier %d: index interval inverted", i)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		gap := bp.ConcLow - prev.ConcHigh
		if gap <= 0 {
			return fmt.Errorf("tier %d: overlaps tier %d", i, i-1)
		}
		if gap > 1 {
			return fmt.Errorf("tier %d: gap of %g after tier %d", i, gap, i-1)
		}
		if bp.IndexLow != prev.IndexHigh+1 {
			return fmt.Errorf("tier %d: index range not contiguous with tier %d", i, i-1)
		}
	}
	return nil
}
