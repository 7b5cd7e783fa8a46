// Package config
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Scylla    ScyllaConfig
	Kafka     KafkaConfig
	Inference InferenceConfig
	Model     ModelConfig
	API       APIConfig
	Worker    WorkerConfig
}

type ScyllaConfig struct {
	Nodes        []string
	MetaKeyspace string
	DataKeyspace string
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

type InferenceConfig struct {
	URL string
}

type ModelConfig struct {
	FeatureColsPath string
	MetaPath        string
}

type APIConfig struct {
	Addr        string
	RequireAuth bool
	BearerToken string
}

type WorkerConfig struct {
	Interval   time.Duration
	BucketSize time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Scylla: ScyllaConfig{
			Nodes:        splitEnv("SCYLLA_NODES"),
			MetaKeyspace: getEnv("SCYLLA_META_KEYSPACE", "air_meta"),
			DataKeyspace: getEnv("SCYLLA_DATA_KEYSPACE", "air_data"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitEnv("KAFKA_BROKERS"),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "aq_readings_"),
		},
		Inference: InferenceConfig{
			URL: getEnv("INFERENCE_URL", ""),
		},
		Model: ModelConfig{
			FeatureColsPath: getEnv("MODEL_FEATURE_COLS_PATH", "models/feature_cols.json"),
			MetaPath:        getEnv("MODEL_META_PATH", "models/model_meta.json"),
		},
		API: APIConfig{
			Addr:        getEnv("API_ADDR", ":8080"),
			RequireAuth: getEnvAsBool("API_REQUIRE_AUTH", false),
			BearerToken: getEnv("API_BEARER_TOKEN", ""),
		},
		Worker: WorkerConfig{
			Interval:   getEnvAsDuration("WORKER_INTERVAL", time.Minute*5),
			BucketSize: getEnvAsDuration("WORKER_BUCKET_SIZE", time.Hour*24),
		},
	}

	if config.API.RequireAuth && config.API.BearerToken == "" {
		return nil, fmt.Errorf("API_REQUIRE_AUTH is enabled, but API_BEARER_TOKEN is not configured")
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitEnv(key string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return nil
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
