package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/ntousis/aeolus-api/pkg/types"
)

var ErrSiteNotFound = errors.New("site not found")

type SiteAlreadyExistsError struct {
	Location string
}

func (e *SiteAlreadyExistsError) Error() string {
	return fmt.Sprintf("site '%s' already exists", e.Location)
}

func (e *SiteAlreadyExistsError) Is(target error) bool {
	_, ok := target.(*SiteAlreadyExistsError)
	return ok
}

func (db *DB) GetSites() ([]types.Site, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	query := db.Meta.Query(`
SELECT site_id, location, country, city, latitude, longitude, source_name
FROM sites
`).WithContext(ctx)

	var results []types.Site
	iter := query.Iter()

	var (
		siteID     gocql.UUID
		location   string
		country    string
		city       string
		lat, lon   float64
		sourceName string
	)

	for iter.Scan(&siteID, &location, &country, &city, &lat, &lon, &sourceName) {
		latitude, longitude := lat, lon
		results = append(results, types.Site{
			SiteID:     uuid.UUID(siteID),
			Location:   location,
			Country:    country,
			City:       city,
			Latitude:   &latitude,
			Longitude:  &longitude,
			SourceName: sourceName,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

func (db *DB) GetSiteByID(siteID uuid.UUID) (*types.Site, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var (
		location   string
		country    string
		city       string
		lat, lon   float64
		sourceName string
	)

	err := db.Meta.Query(`
SELECT location, country, city, latitude, longitude, source_name
FROM sites
WHERE site_id = ?
`, gocql.UUID(siteID)).WithContext(ctx).Scan(&location, &country, &city, &lat, &lon, &sourceName)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}

	return &types.Site{
		SiteID:     siteID,
		Location:   location,
		Country:    country,
		City:       city,
		Latitude:   &lat,
		Longitude:  &lon,
		SourceName: sourceName,
	}, nil
}

// findSite looks a site up by its stable identity (source_name, location).
func (db *DB) findSite(ctx context.Context, sourceName, location string) (*types.Site, error) {
	query := db.Meta.Query(`
SELECT site_id, country, city, latitude, longitude
FROM sites_by_identity
WHERE source_name = ? AND location = ?
`, sourceName, location).WithContext(ctx)

	var (
		siteID   gocql.UUID
		country  string
		city     string
		lat, lon float64
	)

	err := query.Scan(&siteID, &country, &city, &lat, &lon)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}

	return &types.Site{
		SiteID:     uuid.UUID(siteID),
		Location:   location,
		Country:    country,
		City:       city,
		Latitude:   &lat,
		Longitude:  &lon,
		SourceName: sourceName,
	}, nil
}

// RegisterSite inserts a new site; registering the same (source_name,
// location) twice is an error.
func (db *DB) RegisterSite(site types.Site) (*types.Site, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	existing, err := db.findSite(ctx, site.SourceName, site.Location)
	if err != nil && !errors.Is(err, ErrSiteNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &SiteAlreadyExistsError{Location: site.Location}
	}

	site.SiteID = uuid.New()

	var lat, lon float64
	if site.Latitude != nil {
		lat = *site.Latitude
	}
	if site.Longitude != nil {
		lon = *site.Longitude
	}

	batch := db.Meta.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`
INSERT INTO sites (site_id, location, country, city, latitude, longitude, source_name)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, gocql.UUID(site.SiteID), site.Location, site.Country, site.City, lat, lon, site.SourceName)
	batch.Query(`
INSERT INTO sites_by_identity (source_name, location, site_id, country, city, latitude, longitude)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, site.SourceName, site.Location, gocql.UUID(site.SiteID), site.Country, site.City, lat, lon)

	if err := db.Meta.ExecuteBatch(batch); err != nil {
		return nil, err
	}

	return &site, nil
}

// EnsureSite returns the site matching a cleaned record's identity,
// registering it on first sight.
func (db *DB) EnsureSite(rec types.CleanedRecord) (*types.Site, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	existing, err := db.findSite(ctx, rec.SourceName, rec.Location)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrSiteNotFound) {
		return nil, err
	}

	return db.RegisterSite(types.Site{
		Location:   rec.Location,
		Country:    rec.Country,
		City:       rec.City,
		Latitude:   rec.Latitude,
		Longitude:  rec.Longitude,
		SourceName: rec.SourceName,
	})
}
