// Package pipeline turns heterogeneous long-format sensor exports into
// cleaned, standardized records and aggregates them into model-ready
// wide-format rows.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ntousis/aeolus-api/pkg/types"
)

// recognized column names after normalization
var columnAliases = map[string]string{
	"country":          "country",
	"city":             "city",
	"location":         "location",
	"coordinates":      "coordinates",
	"pollutant":        "pollutant",
	"value":            "value",
	"unit":             "unit",
	"source":           "source_name",
	"source_name":      "source_name",
	"last_updated":     "last_updated",
	"last_updated_utc": "last_updated",
	"datetime":         "last_updated",
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// ReadExport reads a delimited export file into raw records. Semicolon is
// the preferred delimiter; when the header yields a single column the
// delimiter is sniffed from the header line instead.
func ReadExport(path string) ([]types.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	return ParseExport(string(data))
}

// ParseExport parses delimited export text into raw records.
func ParseExport(data string) ([]types.RawRecord, error) {
	records, err := parseWithDelimiter(data, ';')
	if err == nil {
		return records, nil
	}

	return parseWithDelimiter(data, sniffDelimiter(data))
}

func parseWithDelimiter(data string, delim rune) ([]types.RawRecord, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) <= 1 {
		return nil, fmt.Errorf("unexpected delimiter %q: single-column header", delim)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		norm := normalizeColumn(name)
		if mapped, ok := columnAliases[norm]; ok {
			columns[i] = mapped
		} else {
			// unrecognized columns pass through unchanged
			columns[i] = norm
		}
	}

	var out []types.RawRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if len(row) != len(columns) {
			continue
		}

		var rec types.RawRecord
		for i, cell := range row {
			switch columns[i] {
			case "country":
				rec.Country = cell
			case "city":
				rec.City = cell
			case "location":
				rec.Location = cell
			case "coordinates":
				rec.Coordinates = cell
			case "pollutant":
				rec.Pollutant = cell
			case "value":
				rec.Value = cell
			case "unit":
				rec.Unit = cell
			case "source_name":
				rec.SourceName = cell
			case "last_updated":
				rec.LastUpdated = cell
			default:
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[columns[i]] = cell
			}
		}
		out = append(out, rec)
	}

	return out, nil
}

// sniffDelimiter picks the candidate occurring most often in the header line.
func sniffDelimiter(data string) rune {
	line := data
	if i := strings.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', 0
	for _, cand := range []rune{',', '\t', '|', ';'} {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}
