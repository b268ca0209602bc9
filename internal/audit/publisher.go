package audit

import (
	"context"
	"fmt"
	"time"

	"crossgate/internal/platform/metrics"
	"crossgate/pkg/domain"
	"crossgate/pkg/requestcontext"
)

// Publisher is the single write path to the audit trail. It is fail-closed:
// if the entry cannot be persisted, the calling operation must fail, so a
// state change can never outrun its audit record.
type Publisher struct {
	store   Store
	metrics *metrics.Metrics
	inbox   chan<- Entry
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithMetrics records append latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithStreamInbox fans successfully persisted entries out to a worker channel
// (non-blocking; the stream is best-effort, the store is the record).
func WithStreamInbox(inbox chan<- Entry) Option {
	return func(p *Publisher) { p.inbox = inbox }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Record assigns identity and request context to the entry, persists it, and
// fans it out to the stream worker when configured.
func (p *Publisher) Record(ctx context.Context, entry Entry) error {
	if entry.ActorID == "" {
		return fmt.Errorf("audit entry requires ActorID")
	}
	if entry.Action == "" {
		return fmt.Errorf("audit entry requires Action")
	}
	if entry.ID.IsNil() {
		entry.ID = domain.NewAuditID()
	}
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.ClientIP == "" {
		entry.ClientIP = requestcontext.ClientIP(ctx)
	}
	if entry.ClientUA == "" {
		entry.ClientUA = requestcontext.UserAgent(ctx)
	}

	start := time.Now()
	if err := p.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if p.metrics != nil {
		p.metrics.AuditAppendMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}

	if p.inbox != nil {
		select {
		case p.inbox <- entry:
		default:
			// A full stream buffer must not block the review path.
		}
	}
	return nil
}

// List returns the trail for one transfer, ordered by PerformedAt ascending.
func (p *Publisher) List(ctx context.Context, transferID domain.TransferID) ([]Entry, error) {
	return p.store.ListByTransfer(ctx, transferID)
}
