package pipeline

import "testing"

func TestParseExportSemicolon(t *testing.T) {
	data := "Country;City;Location;Coordinates;Pollutant;Value;Unit;Source Name;Last Updated\n" +
		"IN;Delhi;US Diplomatic Post: New Delhi;28.63576, 77.22445;pm25;35.4;µg/m³;StateAir_NewDelhi;2024-03-01T06:30:00+05:30\n"

	records, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.Country != "IN" || r.City != "Delhi" {
		t.Errorf("country/city not mapped: %+v", r)
	}
	if r.Pollutant != "pm25" || r.Value != "35.4" || r.Unit != "µg/m³" {
		t.Errorf("pollutant columns not mapped: %+v", r)
	}
	if r.SourceName != "StateAir_NewDelhi" {
		t.Errorf("source name alias not mapped: %q", r.SourceName)
	}
	if r.LastUpdated == "" {
		t.Error("last updated not mapped")
	}
}

func TestParseExportCommaFallback(t *testing.T) {
	data := "location,pollutant,value,unit,last_updated_utc\n" +
		"Station A,no2,40,ppb,2024-03-01T00:00:00Z\n" +
		"Station B,o3,0.05,ppm,2024-03-01T00:00:00Z\n"

	records, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Location != "Station A" || records[0].LastUpdated != "2024-03-01T00:00:00Z" {
		t.Errorf("comma fallback mis-parsed: %+v", records[0])
	}
}

func TestParseExportUnrecognizedColumnsPassThrough(t *testing.T) {
	data := "location;pollutant;value;unit;last_updated;station_operator\n" +
		"Station A;so2;10;ppb;2024-03-01T00:00:00Z;ACME\n"

	records, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if got := records[0].Extra["station_operator"]; got != "ACME" {
		t.Errorf("extra column = %q, want ACME", got)
	}
}

func TestParseExportSkipsMalformedRows(t *testing.T) {
	data := "location;pollutant;value;unit;last_updated\n" +
		"Station A;pm10;54;ug/m3;2024-03-01T00:00:00Z\n" +
		"short;row\n" +
		"Station B;co;4.4;ppm;2024-03-01T00:00:00Z\n"

	records, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (malformed row skipped)", len(records))
	}
}
