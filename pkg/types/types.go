// Package types
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pollutant is the canonical code of a tracked pollutant.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantCO   Pollutant = "co"
	PollutantSO2  Pollutant = "so2"
)

// AllPollutants is the fixed input order used for readings and feature rows.
var AllPollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantNO2,
	PollutantO3,
	PollutantCO,
	PollutantSO2,
}

var ErrInvalidPollutant = fmt.Errorf("invalid pollutant")

func ToPollutant(code string) (Pollutant, error) {
	switch Pollutant(code) {
	case PollutantPM25, PollutantPM10, PollutantNO2, PollutantO3, PollutantCO, PollutantSO2:
		return Pollutant(code), nil
	default:
		return "", ErrInvalidPollutant
	}
}

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Site is a registered measurement location.
type Site struct {
	SiteID     uuid.UUID `json:"site_id"`
	Location   string    `json:"location"`
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	SourceName string    `json:"source_name,omitempty"`
}

// RawRecord is one pollutant observation as exported by an external source.
// All fields are free text; Extra carries unrecognized columns through untouched.
type RawRecord struct {
	Country     string            `json:"country,omitempty"`
	City        string            `json:"city,omitempty"`
	Location    string            `json:"location,omitempty"`
	Coordinates string            `json:"coordinates,omitempty"`
	Pollutant   string            `json:"pollutant"`
	Value       string            `json:"value"`
	Unit        string            `json:"unit,omitempty"`
	SourceName  string            `json:"source_name,omitempty"`
	LastUpdated string            `json:"last_updated"`
	Extra       map[string]string `json:"-"`
}

// CleanedRecord is a RawRecord after normalization and unit standardization.
// Pollutant is guaranteed to be one of AllPollutants, ValueStd finite and
// Timestamp a valid naive-UTC instant.
type CleanedRecord struct {
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	Location   string    `json:"location"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Pollutant  Pollutant `json:"pollutant"`
	ValueStd   float64   `json:"value_std"`
	UnitStd    string    `json:"unit_std"`
	SourceName string    `json:"source_name,omitempty"`
}

// AggregatedRow is one (site identity, time bucket) with one averaged value
// per pollutant. A pollutant with no reading in the bucket has no key.
type AggregatedRow struct {
	SourceName string                `json:"source_name,omitempty"`
	Country    string                `json:"country,omitempty"`
	City       string                `json:"city,omitempty"`
	Location   string                `json:"location"`
	Latitude   *float64              `json:"latitude,omitempty"`
	Longitude  *float64              `json:"longitude,omitempty"`
	Bucket     time.Time             `json:"bucket"`
	Values     map[Pollutant]float64 `json:"values"`
}

type Aggregate struct {
	Avg       float64   `json:"avg"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}
