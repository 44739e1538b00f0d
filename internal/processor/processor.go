package processor

import (
	"context"
	"encoding/json"

	"github.com/ayushman2046/Vendor-orders/internal/broker"
	"github.com/ayushman2046/Vendor-orders/internal/domain"
	"github.com/ayushman2046/Vendor-orders/internal/pipeline"
	"github.com/ayushman2046/Vendor-orders/pkg/mylogger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Processor turns a raw stream entry into a persistence-ready record.
// Every failure it returns is a *pipeline.ValidationError: the message
// can never succeed and must be acked without persistence.
type Processor struct {
	validate *validator.Validate
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Processor {
	return &Processor{
		validate: validator.New(),
		logger:   logger,
	}
}

func (p *Processor) Process(ctx context.Context, msg broker.Message) (*domain.OrderEventRecord, error) {
	raw, ok := msg.Event()
	if !ok {
		return nil, &pipeline.ValidationError{Reason: "no 'event' field in message"}
	}

	var event domain.OrderEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return nil, &pipeline.ValidationError{Reason: "event is not valid JSON", Err: err}
	}

	if err := p.validate.Struct(&event); err != nil {
		return nil, &pipeline.ValidationError{Reason: "event shape invalid", Err: err}
	}

	if event.OrderID == "" {
		event.OrderID = uuid.NewString()

		mylogger.Debug(
			ctx,
			p.logger,
			"Generated order_id for event without one",
			zap.String("order_id", event.OrderID),
		)
	}

	totalAmount := event.TotalAmount()

	return &domain.OrderEventRecord{
		OrderID:     event.OrderID,
		VendorID:    event.VendorID,
		EventType:   domain.EventOrderCreated,
		Payload:     json.RawMessage(raw),
		Timestamp:   event.Timestamp,
		TotalAmount: totalAmount,
		HighValue:   totalAmount > domain.HighValueThreshold,
	}, nil
}
