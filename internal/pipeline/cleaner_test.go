package pipeline

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
	"github.com/rs/zerolog"
)

func newTestCleaner() *Cleaner {
	return NewCleaner(zerolog.Nop())
}

func rawPM25(value, unit, updated string) types.RawRecord {
	return types.RawRecord{
		Country:     "IN",
		City:        "Delhi",
		Location:    "Station A",
		Coordinates: "28.63576, 77.22445",
		Pollutant:   "PM2.5",
		Value:       value,
		Unit:        unit,
		SourceName:  "StateAir",
		LastUpdated: updated,
	}
}

func TestCleanStandardizesRecord(t *testing.T) {
	c := newTestCleaner()

	cleaned := c.Clean([]types.RawRecord{rawPM25("35.4", "µg/m³", "2024-03-01T06:30:00+05:30")})
	if len(cleaned) != 1 {
		t.Fatalf("got %d records, want 1", len(cleaned))
	}

	r := cleaned[0]
	if r.Pollutant != types.PollutantPM25 {
		t.Errorf("pollutant = %s, want pm25", r.Pollutant)
	}
	if r.ValueStd != 35.4 || r.UnitStd != "ug/m3" {
		t.Errorf("standardized = (%v, %s), want (35.4, ug/m3)", r.ValueStd, r.UnitStd)
	}
	if r.Latitude == nil || r.Longitude == nil {
		t.Fatal("coordinates not parsed")
	}
	if *r.Latitude != 28.63576 || *r.Longitude != 77.22445 {
		t.Errorf("coordinates = (%v, %v)", *r.Latitude, *r.Longitude)
	}

	// +05:30 converted to UTC, zone marker dropped
	want := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, want)
	}
}

func TestCleanDropsUnrepresentableInput(t *testing.T) {
	c := newTestCleaner()

	tests := []struct {
		name string
		rec  types.RawRecord
	}{
		{"unrecognized pollutant", types.RawRecord{
			Location: "A", Pollutant: "ozone", Value: "10", Unit: "ppb",
			LastUpdated: "2024-03-01T00:00:00Z",
		}},
		{"non-numeric value", types.RawRecord{
			Location: "A", Pollutant: "so2", Value: "n/a", Unit: "ppb",
			LastUpdated: "2024-03-01T00:00:00Z",
		}},
		{"unparsable timestamp", types.RawRecord{
			Location: "A", Pollutant: "so2", Value: "10", Unit: "ppb",
			LastUpdated: "yesterday",
		}},
		{"unconvertible unit", types.RawRecord{
			Location: "A", Pollutant: "pm25", Value: "10", Unit: "ppm",
			LastUpdated: "2024-03-01T00:00:00Z",
		}},
		{"infinite value", types.RawRecord{
			Location: "A", Pollutant: "so2", Value: "Inf", Unit: "ppb",
			LastUpdated: "2024-03-01T00:00:00Z",
		}},
		{"negative infinity", types.RawRecord{
			Location: "A", Pollutant: "so2", Value: "-Infinity", Unit: "ppb",
			LastUpdated: "2024-03-01T00:00:00Z",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Clean([]types.RawRecord{tt.rec}); len(got) != 0 {
				t.Errorf("record survived cleaning: %+v", got)
			}
		})
	}
}

// PM2.5 spellings must never vanish from a batch after cleaning; losing them
// silently would look like a clean dataset with one pollutant missing.
func TestCleanPreservesPM25Spellings(t *testing.T) {
	c := newTestCleaner()

	spellings := []string{"pm25", "PM2.5", "pm2.5", "PM 2.5", "Pm-2.5", "pm_2_5"}
	for _, spelling := range spellings {
		rec := rawPM25("12.0", "ug/m3", "2024-03-01T00:00:00Z")
		rec.Pollutant = spelling
		cleaned := c.Clean([]types.RawRecord{rec})
		if len(cleaned) != 1 || cleaned[0].Pollutant != types.PollutantPM25 {
			t.Errorf("spelling %q lost during cleaning", spelling)
		}
	}
}

func TestCleanDeduplicates(t *testing.T) {
	c := newTestCleaner()

	a := rawPM25("35.4", "ug/m3", "2024-03-01T00:00:00Z")
	b := rawPM25("35.4", "µg/m³", "2024-03-01T00:00:00Z") // same value after standardization
	different := rawPM25("36.0", "ug/m3", "2024-03-01T00:00:00Z")

	cleaned := c.Clean([]types.RawRecord{a, b, different})
	if len(cleaned) != 2 {
		t.Fatalf("got %d records, want 2 (one duplicate removed)", len(cleaned))
	}
}

func TestCleanIdempotent(t *testing.T) {
	c := newTestCleaner()

	raw := []types.RawRecord{
		rawPM25("35.4", "ug/m3", "2024-03-01T00:00:00Z"),
		rawPM25("35.4", "ug/m3", "2024-03-01T00:00:00Z"),
		{Location: "B", Pollutant: "o3", Value: "70", Unit: "ppb", LastUpdated: "2024-03-01T01:00:00Z"},
	}

	first := c.Clean(raw)

	// feed the cleaned output back through as raw records
	again := make([]types.RawRecord, 0, len(first))
	for _, r := range first {
		rec := types.RawRecord{
			Country:     r.Country,
			City:        r.City,
			Location:    r.Location,
			Pollutant:   string(r.Pollutant),
			Value:       strconv.FormatFloat(r.ValueStd, 'g', -1, 64),
			Unit:        r.UnitStd,
			SourceName:  r.SourceName,
			LastUpdated: r.Timestamp.Format(time.RFC3339),
		}
		if r.Latitude != nil && r.Longitude != nil {
			rec.Coordinates = strconv.FormatFloat(*r.Latitude, 'f', -1, 64) + ", " +
				strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
		}
		again = append(again, rec)
	}

	second := c.Clean(again)
	if len(second) != len(first) {
		t.Fatalf("re-cleaning changed record count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if second[i].Pollutant != first[i].Pollutant ||
			math.Abs(second[i].ValueStd-first[i].ValueStd) > 1e-12 ||
			!second[i].Timestamp.Equal(first[i].Timestamp) {
			t.Errorf("record %d changed on re-clean: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		text string
		lat  float64
		lon  float64
		ok   bool
	}{
		{"28.63576, 77.22445", 28.63576, 77.22445, true},
		{"[-33.8688, 151.2093]", -33.8688, 151.2093, true},
		{"lat: 40 lon: -74", 40, -74, true},
		{"somewhere", 0, 0, false},
		{"", 0, 0, false},
		{"42", 0, 0, false},
	}
	for _, tt := range tests {
		lat, lon := ParseCoordinates(tt.text)
		if tt.ok {
			if lat == nil || lon == nil || *lat != tt.lat || *lon != tt.lon {
				t.Errorf("ParseCoordinates(%q) = (%v, %v), want (%v, %v)", tt.text, lat, lon, tt.lat, tt.lon)
			}
		} else if lat != nil || lon != nil {
			t.Errorf("ParseCoordinates(%q) should be absent", tt.text)
		}
	}
}

func TestNormalizePollutant(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PM2.5", "pm25"},
		{" pm10 ", "pm10"},
		{"NO2", "no2"},
		{"Ozone", "ozone"},
		{"pm 2.5", "pm25"},
	}
	for _, tt := range tests {
		if got := NormalizePollutant(tt.in); got != tt.want {
			t.Errorf("NormalizePollutant(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
