package handler

import (
	"github.com/ayushman2046/Vendor-orders/internal/service"
	"github.com/ayushman2046/Vendor-orders/pkg/mylogger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MetricsHandler struct {
	service service.EventService
	logger  *zap.Logger
}

func NewMetricsHandler(service service.EventService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		service: service,
		logger:  logger,
	}
}

func (h *MetricsHandler) GetVendorMetrics(c *fiber.Ctx) error {
	vendorID := c.Query("vendor_id")
	if vendorID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "vendor_id is required"})
	}

	metrics, err := h.service.GetVendorMetrics(c.UserContext(), vendorID)
	if err != nil {
		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Failed to fetch vendor metrics",
			zap.String("vendor_id", vendorID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(metrics)
}
