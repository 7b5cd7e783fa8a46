package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/gocql/gocql"
	"github.com/ntousis/aeolus-api/internal/cache"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/pipeline"
	"github.com/ntousis/aeolus-api/pkg/types"
	"github.com/rs/zerolog"
)

func NewWatcher(brokers []string, topicPrefix string, cleaner *pipeline.Cleaner, store *db.DB, c cache.Cache, logger zerolog.Logger) *Watcher {
	return &Watcher{
		brokers:     brokers,
		topicPrefix: topicPrefix,
		cleaner:     cleaner,
		store:       store,
		cache:       c,
		logger:      logger,
		knownTopics: make(map[string]bool),
	}
}

// Run watches the broker for raw-reading topics and starts a consumer for
// every new one it sees. Blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	client, err := sarama.NewClient(w.brokers, cfg)
	if err != nil {
		w.logger.Fatal().Err(err).Msg("kafka client")
	}
	defer client.Close()

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		w.logger.Fatal().Err(err).Msg("kafka consumer")
	}
	defer consumer.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			topics, err := client.Topics()
			if err != nil {
				w.logger.Error().Err(err).Msg("list topics")
				time.Sleep(10 * time.Second)
				continue
			}
			for _, topic := range topics {
				if strings.HasPrefix(topic, "__") || !w.isReadingTopic(topic) {
					continue
				}
				if w.knownTopics[topic] {
					continue
				}

				w.logger.Info().Str("topic", topic).Msg("new reading topic detected")
				if err := w.consumeTopic(ctx, consumer, topic); err != nil {
					w.logger.Error().Err(err).Str("topic", topic).Msg("failed to start consumer")
					continue
				}
				w.knownTopics[topic] = true
			}
			time.Sleep(30 * time.Second)
			if err := client.RefreshMetadata(); err != nil {
				w.logger.Error().Err(err).Msg("metadata refresh failed")
			}
		}
	}
}

func (w *Watcher) consumeTopic(ctx context.Context, consumer sarama.Consumer, topic string) error {
	partitions, err := consumer.Partitions(topic)
	if err != nil {
		return fmt.Errorf("list partitions for %s: %w", topic, err)
	}

	for _, partition := range partitions {
		pc, err := consumer.ConsumePartition(topic, partition, sarama.OffsetNewest)
		if err != nil {
			return fmt.Errorf("consume %s/%d: %w", topic, partition, err)
		}

		go func() {
			defer pc.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-pc.Messages():
					if !ok {
						return
					}
					w.handleMessage(msg)
				}
			}
		}()
	}

	return nil
}

func (w *Watcher) handleMessage(msg *sarama.ConsumerMessage) {
	var raw types.RawRecord
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		w.logger.Warn().Err(err).Str("topic", msg.Topic).Msg("undecodable reading message")
		return
	}

	cleaned := w.cleaner.Clean([]types.RawRecord{raw})
	if len(cleaned) == 0 {
		return
	}
	rec := cleaned[0]

	site, err := w.store.EnsureSite(rec)
	if err != nil {
		w.logger.Error().Err(err).Str("location", rec.Location).Msg("failed to resolve site")
		return
	}

	if err := w.store.StoreReading(gocql.UUID(site.SiteID), rec); err != nil {
		w.logger.Error().Err(err).Str("site_id", site.SiteID.String()).Msg("failed to store reading")
		return
	}

	key := cache.ReadingKey(site.SiteID.String(), rec.Pollutant, rec.Timestamp)
	if err := w.cache.Store(key, types.Entry{Timestamp: rec.Timestamp, Value: rec.ValueStd}); err != nil {
		w.logger.Warn().Err(err).Msg("failed to cache reading")
	}
}
