package kafka

import (
	"github.com/ntousis/aeolus-api/internal/cache"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/pipeline"
	"github.com/rs/zerolog"
)

// Watcher discovers raw-reading topics and feeds their records through the
// cleaning pipeline into storage.
type Watcher struct {
	brokers     []string
	topicPrefix string
	cleaner     *pipeline.Cleaner
	store       *db.DB
	cache       cache.Cache
	logger      zerolog.Logger
	knownTopics map[string]bool
}
