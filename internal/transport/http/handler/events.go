package handler

import (
	"errors"

	"github.com/ayushman2046/Vendor-orders/internal/domain"
	"github.com/ayushman2046/Vendor-orders/internal/service"
	"github.com/ayushman2046/Vendor-orders/pkg/mylogger"
	"github.com/ayushman2046/Vendor-orders/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type EventHandler struct {
	service  service.EventService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewEventHandler(service service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *EventHandler) Publish(c *fiber.Ctx) error {
	var event domain.OrderEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	if err := h.validate.Struct(&event); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"errors": utils.FormatValidationError(err),
			})
		}

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	orderID, err := h.service.PublishEvent(c.UserContext(), &event)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Event stream temporarily unavailable"})
		}

		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Publish failed",
			zap.String("vendor_id", event.VendorID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"status":   "queued",
		"order_id": orderID,
	})
}
