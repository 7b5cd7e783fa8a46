package aqi

import (
	"math"

	"github.com/ntousis/aeolus-api/pkg/types"
)

// SubIndex computes the pollutant's sub-index (IAQI) for a concentration.
// An empty unit means the value is already in the pollutant's canonical
// unit. The tiers are scanned in ascending order and the first closed
// interval containing the standardized value wins; a value outside every
// tier is undefined (ok=false). No clamping, no extrapolation.
func SubIndex(p types.Pollutant, concentration float64, unit string) (float64, bool) {
	tiers, ok := Tiers(p)
	if !ok {
		return 0, false
	}

	if unit == "" {
		unit, _ = CanonicalUnit(p)
	}

	converted, _, ok := Convert(p, concentration, unit)
	if !ok {
		return 0, false
	}

	for _, bp := range tiers {
		if bp.ConcLow <= converted && converted <= bp.ConcHigh {
			span := bp.ConcHigh - bp.ConcLow
			idx := float64(bp.IndexHigh-bp.IndexLow)/span*(converted-bp.ConcLow) + float64(bp.IndexLow)
			return idx, true
		}
	}

	return 0, false
}

// ComputeAQI combines per-pollutant readings into one AQI value using the
// EPA reporting-pollutant rule: the maximum defined sub-index. Pollutants
// absent from the map are skipped; units map entries may be missing or
// empty (canonical unit assumed). ok=false when no pollutant yields a
// defined sub-index.
func ComputeAQI(values map[types.Pollutant]float64, units map[types.Pollutant]string) (float64, bool) {
	max := math.Inf(-1)
	defined := false

	for _, p := range types.AllPollutants {
		v, present := values[p]
		if !present {
			continue
		}
		iaqi, ok := SubIndex(p, v, units[p])
		if !ok {
			continue
		}
		if iaqi > max {
			max = iaqi
		}
		defined = true
	}

	if !defined {
		return 0, false
	}
	return max, true
}

// Category maps an AQI value to its named band. Values above 500 are not
// clamped numerically but still report Hazardous.
func Category(aqi float64) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
