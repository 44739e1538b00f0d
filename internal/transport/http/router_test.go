package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ayushman2046/Vendor-orders/internal/broker"
	"github.com/ayushman2046/Vendor-orders/internal/domain"
	"github.com/ayushman2046/Vendor-orders/internal/service"
	"github.com/ayushman2046/Vendor-orders/internal/transport/http/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubService struct {
	service.EventService
	publishOrderID string
}

func (s *stubService) PublishEvent(_ context.Context, event *domain.OrderEvent) (string, error) {
	if event.OrderID != "" {
		return event.OrderID, nil
	}
	return s.publishOrderID, nil
}

func newTestApp(t *testing.T, svc service.EventService) *fiber.App {
	t.Helper()

	app := fiber.New()
	logger := zap.NewNop()

	RegisterRoutes(app, &Handlers{
		Events:  handler.NewEventHandler(svc, logger),
		Metrics: handler.NewMetricsHandler(svc, logger),
	}, "secret-token")

	return app
}

const eventBody = `{
	"vendor_id": "V001",
	"order_id": "ORD123",
	"items": [
		{"sku": "SKU1", "qty": 2, "unit_price": 100},
		{"sku": "SKU2", "qty": 1, "unit_price": 50}
	],
	"timestamp": "2025-07-29T14:00:00Z"
}`

func TestPublishRequiresAuth(t *testing.T) {
	app := newTestApp(t, &stubService{})

	req := httptest.NewRequest("POST", "/events", strings.NewReader(eventBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/events", strings.NewReader(eventBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong-token")

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPublishQueuesEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stream := broker.NewStream(client, "vendor_orders", "order_processor_group")
	svc := service.NewEventService(stream, nil, zap.NewNop())

	app := newTestApp(t, svc)

	req := httptest.NewRequest("POST", "/events", strings.NewReader(eventBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "queued", out["status"])
	require.Equal(t, "ORD123", out["order_id"])

	require.Equal(t, 1, len(mr.Keys()))
}

func TestPublishRejectsInvalidEvent(t *testing.T) {
	app := newTestApp(t, &stubService{})

	req := httptest.NewRequest("POST", "/events", strings.NewReader(`{"vendor_id": "V001"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &stubService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
