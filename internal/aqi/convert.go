package aqi

import (
	"math"
	"strings"

	"github.com/ntousis/aeolus-api/pkg/types"
)

// Molecular weights used for gas conversions, g/mol.
var molecularWeights = map[types.Pollutant]float64{
	types.PollutantO3:  48.00,
	types.PollutantNO2: 46.01,
	types.PollutantSO2: 64.07,
	types.PollutantCO:  28.01,
}

// Ideal-gas relation at 25 degrees C and 1 atm.
func ugm3ToPpm(valueUgm3, mw float64) float64 {
	return (valueUgm3 * 24.45) / (mw * 1000.0)
}

func ppmToUgm3(valuePpm, mw float64) float64 {
	return (valuePpm * mw * 1000.0) / 24.45
}

// NormalizeUnit folds the unit spellings seen in sensor exports onto the
// canonical forms: trimmed, lower-cased, micro-sign variants to "ug/m3",
// "mg/m³" to "mg/m3".
func NormalizeUnit(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	unit = strings.ReplaceAll(unit, "µ", "u")
	unit = strings.ReplaceAll(unit, "ug/m^3", "ug/m3")
	unit = strings.ReplaceAll(unit, "ug/m³", "ug/m3")
	unit = strings.ReplaceAll(unit, "mg/m³", "mg/m3")
	return unit
}

// Convert converts a concentration to the standard unit expected by the
// pollutant's breakpoint table. It fails soft: an unknown pollutant, an
// unmapped unit or a NaN value yields ok=false, never an error. The rule
// set is closed; there is no generic unit algebra.
func Convert(p types.Pollutant, value float64, unit string) (float64, string, bool) {
	if math.IsNaN(value) {
		return 0, "", false
	}
	target, ok := CanonicalUnit(p)
	if !ok {
		return 0, "", false
	}

	unit = NormalizeUnit(unit)
	if unit == target {
		return value, target, true
	}

	if p == types.PollutantPM25 || p == types.PollutantPM10 {
		switch unit {
		case "mg/m3":
			return value * 1000.0, target, true
		case "ug/m3":
			return value, target, true
		}
		return 0, "", false
	}

	mw, ok := molecularWeights[p]
	if !ok {
		return 0, "", false
	}

	switch target {
	case "ppm":
		switch unit {
		case "ppb":
			return value / 1000.0, target, true
		case "ug/m3":
			return ugm3ToPpm(value, mw), target, true
		case "mg/m3":
			return ugm3ToPpm(value*1000.0, mw), target, true
		case "ppm":
			return value, target, true
		}
	case "ppb":
		switch unit {
		case "ppm":
			return value * 1000.0, target, true
		case "ug/m3":
			return ugm3ToPpm(value, mw) * 1000.0, target, true
		case "mg/m3":
			return ugm3ToPpm(value*1000.0, mw) * 1000.0, target, true
		case "ppb":
			return value, target, true
		}
	}

	return 0, "", false
}
