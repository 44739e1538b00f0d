// Package consumer runs the read loop: pull a batch of stream entries,
// process and persist each one in receipt order, and acknowledge a
// message only after its record is durably committed.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/ayushman2046/Vendor-orders/internal/broker"
	"github.com/ayushman2046/Vendor-orders/internal/domain"
	"github.com/ayushman2046/Vendor-orders/internal/metrics"
	"github.com/ayushman2046/Vendor-orders/internal/pipeline"
	"github.com/ayushman2046/Vendor-orders/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Processor interface {
	Process(ctx context.Context, msg broker.Message) (*domain.OrderEventRecord, error)
}

type Sink interface {
	SaveEvent(ctx context.Context, record *domain.OrderEventRecord) error
}

type Config struct {
	Name       string
	BatchSize  int64
	BlockTime  time.Duration
	IdlePause  time.Duration
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "consumer_1"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BlockTime <= 0 {
		c.BlockTime = 2 * time.Second
	}
	if c.IdlePause <= 0 {
		c.IdlePause = time.Second
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
}

type Consumer struct {
	stream    *broker.Stream
	processor Processor
	sink      Sink
	logger    *zap.Logger
	metrics   *metrics.Pipeline
	cfg       Config
	tracer    trace.Tracer
}

func New(
	stream *broker.Stream,
	processor Processor,
	sink Sink,
	logger *zap.Logger,
	pipelineMetrics *metrics.Pipeline,
	cfg Config,
) *Consumer {
	cfg.applyDefaults()

	return &Consumer{
		stream:    stream,
		processor: processor,
		sink:      sink,
		logger:    logger,
		metrics:   pipelineMetrics,
		cfg:       cfg,
		tracer:    otel.Tracer("consumer"),
	}
}

// Run blocks until ctx is cancelled. It first drains this consumer's
// pending entries (delivered earlier but never acked), then reads new
// messages. On a transient failure the pending cursor is rewound so
// the failed message is redelivered after backoff. The in-flight
// message is always finished before shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Consumer listening",
		zap.String("stream", c.stream.Name()),
		zap.String("group", c.stream.Group()),
		zap.String("consumer", c.cfg.Name),
	)

	delay := newBackoff(c.cfg.MinBackoff, c.cfg.MaxBackoff)
	cursor := broker.ReadPending

	for {
		if ctx.Err() != nil {
			mylogger.Info(ctx, c.logger, "Consumer shutting down")
			return nil
		}

		messages, err := c.stream.Read(ctx, c.cfg.Name, cursor, c.cfg.BatchSize, c.cfg.BlockTime)
		if err != nil {
			if ctx.Err() != nil {
				mylogger.Info(ctx, c.logger, "Consumer shutting down")
				return nil
			}

			mylogger.Error(ctx, c.logger, "Stream read failed", zap.Error(err))

			cursor = broker.ReadPending
			if !sleep(ctx, delay.Next()) {
				return nil
			}
			continue
		}

		if len(messages) == 0 {
			if cursor != broker.ReadNew {
				// pending backlog drained, switch to new messages
				cursor = broker.ReadNew
				continue
			}

			if !sleep(ctx, c.cfg.IdlePause) {
				return nil
			}
			continue
		}

		rewind := false
		for _, msg := range messages {
			// a shutdown request must not abort the in-flight message
			// mid-transaction; the loop exits after it completes
			err := c.handleMessage(context.WithoutCancel(ctx), msg)

			var retryable *pipeline.RetryableError
			if errors.As(err, &retryable) {
				mylogger.Warn(
					ctx,
					c.logger,
					"Transient failure, message left for redelivery",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)

				c.metrics.PersistenceRetries.Inc()
				rewind = true
				break
			}

			// only a handled message proves the downstream recovered;
			// resetting earlier would pin the retry delay at its minimum
			delay.Reset()

			if cursor != broker.ReadNew {
				// move the pending cursor past messages already handled
				cursor = msg.ID
			}

			if ctx.Err() != nil {
				mylogger.Info(ctx, c.logger, "Consumer shutting down")
				return nil
			}
		}

		if rewind {
			cursor = broker.ReadPending
			if !sleep(ctx, delay.Next()) {
				return nil
			}
		}
	}
}

// handleMessage takes one message through processing, persistence and
// acknowledgment. Only a *pipeline.RetryableError escapes; every other
// outcome is contained here so the loop keeps going.
func (c *Consumer) handleMessage(ctx context.Context, msg broker.Message) error {
	ctx, span := c.tracer.Start(ctx, "Consumer.handleMessage",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("message_id", msg.ID)),
	)
	defer span.End()

	record, err := c.processor.Process(ctx, msg)
	if err != nil {
		var invalid *pipeline.ValidationError
		if errors.As(err, &invalid) {
			// poison-message avoidance: a malformed event can never
			// succeed, acknowledge it so the partition keeps moving
			mylogger.Warn(
				ctx,
				c.logger,
				"Dropping malformed event",
				zap.String("message_id", msg.ID),
				zap.String("reason", invalid.Reason),
				zap.Error(invalid.Err),
			)

			c.metrics.ValidationFailures.Inc()
			return c.ack(ctx, msg.ID)
		}

		span.RecordError(err)
		return err
	}

	if err := c.sink.SaveEvent(ctx, record); err != nil {
		span.RecordError(err)

		var conflict *pipeline.ConflictError
		if errors.As(err, &conflict) {
			// not acked and not retried: the message stays pending
			// until an operator intervenes
			mylogger.Error(
				ctx,
				c.logger,
				"Persistence conflict, operator intervention required",
				zap.String("message_id", msg.ID),
				zap.String("order_id", record.OrderID),
				zap.Error(err),
			)

			c.metrics.PersistenceConflicts.Inc()
			return nil
		}

		return err
	}

	mylogger.Debug(
		ctx,
		c.logger,
		"Persisted order event",
		zap.String("message_id", msg.ID),
		zap.String("order_id", record.OrderID),
		zap.Float64("total_amount", record.TotalAmount),
		zap.Bool("high_value", record.HighValue),
	)

	c.metrics.Processed.Inc()
	return c.ack(ctx, msg.ID)
}

// ack advances the group cursor. A failed ack after a committed write
// is reported as retryable: the message will be redelivered and produce
// a duplicate row, the documented at-least-once trade-off.
func (c *Consumer) ack(ctx context.Context, id string) error {
	if err := c.stream.Ack(ctx, id); err != nil {
		return &pipeline.RetryableError{Op: "ack", Err: err}
	}

	c.metrics.Acked.Inc()
	return nil
}

// sleep waits for d or until ctx is cancelled; false means cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
