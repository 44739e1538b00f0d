package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayushman2046/Vendor-orders/internal/broker"
	"github.com/ayushman2046/Vendor-orders/internal/domain"
	"github.com/ayushman2046/Vendor-orders/internal/repository"
	"github.com/ayushman2046/Vendor-orders/pkg/mylogger"
	"github.com/ayushman2046/Vendor-orders/pkg/utils"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type EventService interface {
	PublishEvent(ctx context.Context, event *domain.OrderEvent) (string, error)
	GetVendorMetrics(ctx context.Context, vendorID string) (*domain.VendorMetrics, error)
}

type eventService struct {
	stream  *broker.Stream
	repo    repository.EventRepository
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewEventService(stream *broker.Stream, repo repository.EventRepository, logger *zap.Logger) EventService {
	return &eventService{
		stream: stream,
		repo:   repo,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "stream-publish",
		}),
		logger: logger,
		tracer: otel.Tracer("event_service"),
	}
}

// PublishEvent appends the event to the vendor orders stream. The
// order id is assigned here when the vendor omitted one, so the caller
// can return it immediately.
func (s *eventService) PublishEvent(ctx context.Context, event *domain.OrderEvent) (string, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.PublishEvent",
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	defer span.End()

	if event.OrderID == "" {
		event.OrderID = uuid.NewString()
	}

	span.SetAttributes(
		attribute.String("vendor_id", event.VendorID),
		attribute.String("order_id", event.OrderID),
	)

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("marshal event: %w", err)
	}

	messageID, err := utils.ExecuteWithBreaker(s.breaker, func() (string, error) {
		return s.stream.Publish(ctx, data)
	})
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to publish event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)

		return "", err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Event queued",
		zap.String("order_id", event.OrderID),
		zap.String("message_id", messageID),
	)

	return event.OrderID, nil
}

func (s *eventService) GetVendorMetrics(ctx context.Context, vendorID string) (*domain.VendorMetrics, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.GetVendorMetrics")
	defer span.End()

	span.SetAttributes(
		attribute.String("vendor_id", vendorID),
	)

	return s.repo.GetVendorMetrics(ctx, vendorID)
}
