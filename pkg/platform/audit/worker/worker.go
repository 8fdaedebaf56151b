// Package worker relays compliance audit events from the Postgres outbox to Kafka.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycgate/pkg/platform/audit/store/postgres"
)

// Source is the outbox the worker drains.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer is the subset of *kgo.Client the worker needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Worker polls the outbox and publishes entries keyed by aggregate id, so
// every event for one flag or verification lands on the same partition.
type Worker struct {
	source    Source
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// Option configures the Worker.
type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batchSize = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// NewWorker creates an outbox relay.
func NewWorker(source Source, producer Producer, topic string, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		producer:  producer,
		topic:     topic,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Delivery is at-least-once; consumers
// deduplicate on the payload id.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were delivered.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.source.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	records := make([]*kgo.Record, 0, len(entries))
	byRecord := make(map[*kgo.Record]postgres.Entry, len(entries))
	for _, e := range entries {
		rec := &kgo.Record{
			Topic: w.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "aggregate_type", Value: []byte(e.AggregateType)},
			},
		}
		byRecord[rec] = e
		records = append(records, rec)
	}

	results := w.producer.ProduceSync(ctx, records...)
	delivered := make([]uuid.UUID, 0, len(entries))
	// results arrive in completion order, not submission order
	for _, res := range results {
		entry := byRecord[res.Record]
		if res.Err != nil {
			w.logger.WarnContext(ctx, "outbox entry not delivered",
				"outbox_id", entry.ID,
				"event_type", entry.EventType,
				"error", res.Err,
			)
			continue
		}
		delivered = append(delivered, entry.ID)
	}

	if err := w.source.MarkPublished(ctx, delivered, time.Now().UTC()); err != nil {
		return 0, err
	}
	if len(delivered) < len(entries) {
		return len(delivered), fmt.Errorf("%d of %d outbox entries not delivered", len(entries)-len(delivered), len(entries))
	}
	return len(delivered), nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}
