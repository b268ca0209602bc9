package audit

import (
	"context"
	"log/slog"
)

// Sink receives persisted audit entries; the Kafka Stream satisfies it.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Worker drains the publisher's inbox into a sink. It keeps stream delivery
// off the review path and swallows sink errors after logging them; the store
// already holds the entry.
type Worker struct {
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "audit stream publish failed",
					"audit_id", entry.ID.String(),
					"transfer_id", entry.TransferID.String(),
					"error", err,
				)
			}
		}
	}
}
