// Package publisher relays order events from the outbox table to Kafka.
package publisher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ridloal/toko-storefront/internal/order/domain"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	"github.com/robfig/cron/v3"
	"github.com/segmentio/kafka-go"
)

type EventStore interface {
	ListUnpublishedEvents(ctx context.Context, limit int) ([]domain.Event, error)
	MarkEventPublished(ctx context.Context, id string, at time.Time) error
}

// MessageWriter is the part of *kafka.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
}

type OutboxRelay struct {
	store     EventStore
	writer    MessageWriter
	batchSize int
	timeout   time.Duration
	now       func() time.Time
}

func NewOutboxRelay(store EventStore, writer MessageWriter, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{store: store, writer: writer, batchSize: batchSize, timeout: 10 * time.Second, now: time.Now}
}

// RunOnce publishes one batch and returns how many events were marked published.
// An event that fails to publish stays in the outbox and is retried on the next run.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.store.ListUnpublishedEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox events: %w", err)
	}

	published := 0
	for _, event := range events {
		msg := kafka.Message{
			Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.Type)},
				{Key: "event_id", Value: []byte(event.ID)},
			},
		}
		if err := r.writer.WriteMessages(ctx, msg); err != nil {
			logger.Warn("failed to publish event %s for order %d: %v", event.ID, event.OrderID, err)
			continue
		}
		if err := r.store.MarkEventPublished(ctx, event.ID, r.now()); err != nil {
			// Published but not marked: consumers see it again, keyed by event_id.
			logger.Error("failed to mark event %s as published", err, event.ID)
			continue
		}
		published++
	}
	return published, nil
}

// Schedule runs the relay on a cron spec with seconds, e.g. "*/5 * * * * *".
// The caller stops the returned cron.
func (r *OutboxRelay) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		n, err := r.RunOnce(ctx)
		if err != nil {
			logger.Error("outbox relay run failed", err)
			return
		}
		if n > 0 {
			logger.Info("outbox relay published %d events", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid outbox schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("outbox relay scheduled with spec '%s'", spec)
	return c, nil
}
