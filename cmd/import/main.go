// Command import ingests a delimited sensor export: it cleans and
// standardizes the raw records, optionally stores them as readings, and
// writes the aggregated training feature matrix for the model trainer.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/ntousis/aeolus-api/internal/config"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/features"
	"github.com/ntousis/aeolus-api/internal/pipeline"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	exportPath := flag.String("export", "", "path to the delimited export file")
	outPath := flag.String("out", "models/training_features.json", "where to write the training feature matrix")
	bucket := flag.Duration("bucket", time.Hour, "aggregation bucket size")
	lagsFlag := flag.String("lags", "1,2,3", "comma-separated lag offsets for the feature matrix")
	flag.Parse()

	if *exportPath == "" {
		logger.Fatal().Msg("missing -export")
	}

	lags, err := parseLags(*lagsFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid -lags")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	raw, err := pipeline.ReadExport(*exportPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read export")
	}

	cleaner := pipeline.NewCleaner(logger)
	cleaned := cleaner.Clean(raw)
	logger.Info().Int("raw", len(raw)).Int("cleaned", len(cleaned)).Msg("export cleaned")

	if len(cfg.Scylla.Nodes) > 0 {
		store := connect(cfg, logger)
		defer store.Close()

		stored := 0
		for _, rec := range cleaned {
			site, err := store.EnsureSite(rec)
			if err != nil {
				logger.Error().Err(err).Str("location", rec.Location).Msg("failed to resolve site")
				continue
			}
			if err := store.StoreReading(gocql.UUID(site.SiteID), rec); err != nil {
				logger.Error().Err(err).Str("site_id", site.SiteID.String()).Msg("failed to store reading")
				continue
			}
			stored++
		}
		logger.Info().Int("stored", stored).Msg("readings stored")
	} else {
		logger.Warn().Msg("no scylla nodes configured, skipping storage")
	}

	rows, err := pipeline.Aggregate(cleaned, *bucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("aggregation failed")
	}

	matrix := features.TrainingMatrix(rows, lags)

	b, err := json.MarshalIndent(matrix, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to marshal feature matrix")
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("failed to write feature matrix")
	}

	logger.Info().
		Int("buckets", len(rows)).
		Int("rows", len(matrix)).
		Str("path", *outPath).
		Msg("training features written")
}

func parseLags(s string) ([]int, error) {
	var lags []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		lags = append(lags, n)
	}
	return lags, nil
}

func connect(cfg *config.Config, logger zerolog.Logger) *db.DB {
	clusterMeta := gocql.NewCluster(cfg.Scylla.Nodes...)
	clusterMeta.Keyspace = cfg.Scylla.MetaKeyspace
	clusterMeta.DisableInitialHostLookup = true
	clusterMeta.DisableShardAwarePort = true
	metaSess, err := clusterMeta.CreateSession()
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to meta keyspace")
	}

	clusterData := gocql.NewCluster(cfg.Scylla.Nodes...)
	clusterData.Keyspace = cfg.Scylla.DataKeyspace
	clusterData.DisableInitialHostLookup = true
	clusterData.DisableShardAwarePort = true
	dataSess, err := clusterData.CreateSession()
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to data keyspace")
	}

	return db.New(metaSess, dataSess)
}
