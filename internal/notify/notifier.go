// Package notify emits notification requests to the host environment's
// dispatcher. Delivery and formatting are entirely the dispatcher's concern;
// the engine only produces the request.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Notification is the request shape handed to the dispatcher.
type Notification struct {
	Message   string `json:"message"`
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Sender    string `json:"sender"`
}

// Notification types produced by the engine.
const (
	TypeReviewCompleted   = "REVIEW_COMPLETED"
	TypeEscalation        = "ESCALATION"
	TypeEscalationReplied = "ESCALATION_RESPONSE"
	TypeDeputyAssigned    = "DEPUTY_ASSIGNED"
)

// Dispatcher delivers notification requests. Implementations are best-effort;
// callers log failures and continue.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// LogDispatcher writes notification requests to the structured log. It is the
// development default and the fallback when Kafka is not configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	d.logger.InfoContext(ctx, "notification",
		"type", n.Type,
		"recipient", n.Recipient,
		"sender", n.Sender,
		"request_id", n.RequestID,
		"message", n.Message,
	)
	return nil
}

// KafkaDispatcher produces notification requests to a topic the real
// dispatcher consumes.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaDispatcher(client *kgo.Client, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{client: client, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(n.Recipient),
		Value: payload,
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	return nil
}
