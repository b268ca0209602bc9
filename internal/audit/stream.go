package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Stream mirrors persisted audit entries onto a Kafka topic for downstream
// compliance consumers. The store remains the system of record; the stream is
// a feed, so producer failures are logged and never propagated to reviews.
type Stream struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewStream connects a producer and ensures the topic exists. Partition count
// and replication are left to broker defaults on existing clusters.
func NewStream(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Stream, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			logger.Warn("audit topic creation reported error, continuing",
				"topic", res.Topic, "error", res.Err)
		}
	}

	return &Stream{client: client, topic: topic, logger: logger}, nil
}

// Publish produces one entry keyed by transfer ID so per-transfer ordering is
// preserved within a partition.
func (s *Stream) Publish(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.TransferID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *Stream) Close() {
	s.client.Close()
}
