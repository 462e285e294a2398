package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"sovereign/internal/platform/config"
	"sovereign/pkg/requestcontext"
)

// KafkaPublisher produces events to a single topic keyed by tenant so all
// events for a tenant land in one partition, preserving per-tenant order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects a franz-go producer. Returns nil if no brokers
// are configured, letting main fall back to the Nop publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &KafkaPublisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Publish enqueues the event asynchronously. Missing correlation IDs are
// filled from the request context or freshly generated; produce failures
// are logged and dropped.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.CorrelationID == "" {
		if reqID := requestcontext.RequestID(ctx); reqID != "" {
			event.CorrelationID = reqID
		} else {
			event.CorrelationID = uuid.NewString()
		}
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "event marshal failed", "type", event.Type, "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.TenantID.String()),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("event produce failed",
				"type", event.Type,
				"tenant_id", event.TenantID,
				"correlation_id", event.CorrelationID,
				"error", err,
			)
		}
	})
}

// Close flushes buffered records and releases the client.
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
