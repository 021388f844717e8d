package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/munger/pkg/metrics"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/router"
	"github.com/Ramsey-B/munger/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes outcome events to Kafka
type Producer struct {
	writer messageWriter
	logger ectologger.Logger
	config ProducerConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger ectologger.Logger) (*Producer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("an events topic is required")
	}

	var compression kafka.Compression
	switch config.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	default:
		compression = 0 // No compression
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{}, // Hash by run id for ordering within a run
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.BatchTimeout,
		MaxAttempts:            config.MaxAttempts,
		WriteTimeout:           config.WriteTimeout,
		Async:                  config.Async,
		Compression:            compression,
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, config, logger), nil
}

func newProducer(writer messageWriter, config ProducerConfig, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		config: config,
	}
}

func (p *Producer) Topic() string {
	return p.config.Topic
}

// Publish publishes an outcome event to the configured topic
func (p *Producer) Publish(ctx context.Context, msg *OutcomeEvent) error {
	start := time.Now()
	err := p.publish(ctx, msg)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordKafkaPublish(p.config.Topic, status, time.Since(start).Seconds())
	return err
}

func (p *Producer) publish(ctx context.Context, msg *OutcomeEvent) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	headers := MessageHeaders{
		RunID:       msg.RunID,
		Outcome:     msg.Outcome,
		Source:      msg.Source,
		TraceParent: tracing.GetTraceParent(ctx),
	}

	kafkaHeaders := make([]kafka.Header, 0)
	for _, h := range headers.ToKafkaHeaders() {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: h.Key, Value: h.Value})
	}

	kafkaMsg := kafka.Message{
		Key:     []byte(msg.Key()),
		Value:   data,
		Headers: kafkaHeaders,
		Time:    msg.Timestamp,
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Hook returns a router hook that publishes every event it receives. Publish failures
// are logged and never stop the run.
func (p *Producer) Hook() router.Hook {
	return func(ctx context.Context, event router.Event) {
		msg := NewOutcomeEvent(event)
		msg.TraceID = tracing.GetTraceID(ctx)
		msg.SpanID = tracing.GetSpanID(ctx)

		if err := p.Publish(ctx, msg); err != nil {
			p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"run_id":  event.RunID,
				"row":     event.Row,
				"outcome": event.Outcome.String(),
				"topic":   p.config.Topic,
			}).Error("Failed to publish outcome event")
		}
	}
}

// HookOutcomes is the registration surface a pipeline offers for hooks.
type HookOutcomes interface {
	RegisterHook(outcome models.Outcome, hook router.Hook) error
}

// Attach registers the producer's hook on each outcome.
func (p *Producer) Attach(target HookOutcomes, outcomes ...models.Outcome) error {
	hook := p.Hook()
	for _, outcome := range outcomes {
		if err := target.RegisterHook(outcome, hook); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}
