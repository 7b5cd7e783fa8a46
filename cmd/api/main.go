package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gocql/gocql"
	"github.com/ntousis/aeolus-api/internal/aqi"
	"github.com/ntousis/aeolus-api/internal/cache"
	"github.com/ntousis/aeolus-api/internal/config"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/inference"
	"github.com/ntousis/aeolus-api/internal/kafka"
	"github.com/ntousis/aeolus-api/internal/model"
	"github.com/ntousis/aeolus-api/internal/pipeline"
	routes "github.com/ntousis/aeolus-api/internal/routes"
	"github.com/ntousis/aeolus-api/internal/tracing"
	"github.com/ntousis/aeolus-api/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := aqi.ValidateTables(); err != nil {
		logger.Fatal().Err(err).Msg("breakpoint tables are inconsistent")
	}

	shutdownTracer := tracing.InitTracer(logger)
	defer shutdownTracer(context.Background())

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

	store := db.New(metaSess, dataSess)
	defer store.Close()

	cache, err := cache.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("cache setup failed")
	}
	defer cache.Close()

	var inf *inference.Client
	if cfg.Inference.URL != "" {
		inf = inference.New(cfg.Inference.URL, logger)
	} else {
		logger.Warn().Msg("no model server configured, serving exact answers only")
	}

	artifacts, err := model.Load(cfg.Model.FeatureColsPath, cfg.Model.MetaPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load model artifacts")
	}

	app := routes.New(store, cache, inf, artifacts, &cfg.API, logger)
	mux := routes.NewMux(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		cleaner := pipeline.NewCleaner(logger)
		watcher := kafka.NewWatcher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, cleaner, store, cache, logger)
		go watcher.Run(ctx)
	} else {
		logger.Warn().Msg("no kafka brokers configured, ingestion disabled")
	}

	sv := worker.NewSupervisor(store, cache, inf, cfg.Worker.Interval, cfg.Worker.BucketSize, logger)
	sv.Start(ctx)
	defer sv.Stop()

	logger.Info().Str("addr", cfg.API.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.API.Addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
