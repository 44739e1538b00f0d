package integration

import (
	"encoding/json"
	"time"

	"github.com/ayushman2046/Vendor-orders/internal/domain"
)

func (s *IntegrationTestSuite) sampleEvent() *domain.OrderEvent {
	ts, err := time.Parse(time.RFC3339, "2025-07-29T14:00:00Z")
	s.Require().NoError(err)

	return &domain.OrderEvent{
		VendorID: "V001",
		OrderID:  "ORD123",
		Items: []domain.OrderItem{
			{SKU: "SKU1", Qty: 2, UnitPrice: 100},
			{SKU: "SKU2", Qty: 1, UnitPrice: 50},
		},
		Timestamp: ts,
	}
}

func (s *IntegrationTestSuite) TestPublishToPersistedRecord() {
	orderID, err := s.EventService.PublishEvent(s.Ctx, s.sampleEvent())
	s.Require().NoError(err)
	s.Require().Equal("ORD123", orderID)

	s.Require().Eventually(func() bool {
		return s.countRows("V001") == 1
	}, 15*time.Second, 100*time.Millisecond)

	var (
		eventType   string
		payload     []byte
		totalAmount float64
		highValue   bool
	)
	err = s.DbPool.QueryRow(
		s.Ctx,
		"SELECT event_type, payload, total_amount, high_value FROM order_events WHERE order_id = $1",
		"ORD123",
	).Scan(&eventType, &payload, &totalAmount, &highValue)
	s.Require().NoError(err)

	s.Require().Equal("order_created", eventType)
	s.Require().Equal(250.0, totalAmount)
	s.Require().False(highValue)

	var stored domain.OrderEvent
	s.Require().NoError(json.Unmarshal(payload, &stored))
	s.Require().Equal("V001", stored.VendorID)
	s.Require().Len(stored.Items, 2)

	// the message was acknowledged after commit
	s.Require().Eventually(func() bool {
		count, err := s.Stream.PendingCount(s.Ctx)
		return err == nil && count == 0
	}, 15*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestMalformedMessageIsSkipped() {
	_, err := s.Stream.Publish(s.Ctx, []byte(`{"vendor_id": "V001"}`))
	s.Require().NoError(err)

	_, err = s.EventService.PublishEvent(s.Ctx, s.sampleEvent())
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		return s.countRows("V001") == 1
	}, 15*time.Second, 100*time.Millisecond)

	s.Require().Eventually(func() bool {
		count, err := s.Stream.PendingCount(s.Ctx)
		return err == nil && count == 0
	}, 15*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestDuplicateRowsOnRepeatedDelivery() {
	// current behavior: no unique constraint ties order_id to one row
	record := &domain.OrderEventRecord{
		OrderID:     "ORD123",
		VendorID:    "V001",
		EventType:   domain.EventOrderCreated,
		Payload:     json.RawMessage(`{"vendor_id":"V001"}`),
		Timestamp:   time.Now().UTC(),
		TotalAmount: 250.0,
	}

	s.Require().NoError(s.Repo.SaveEvent(s.Ctx, record))
	firstID := record.ID

	s.Require().NoError(s.Repo.SaveEvent(s.Ctx, record))
	s.Require().NotEqual(firstID, record.ID)

	s.Require().EqualValues(2, s.countRows("V001"))
}

func (s *IntegrationTestSuite) TestVendorMetricsRollup() {
	events := []*domain.OrderEvent{
		{
			VendorID:  "V002",
			OrderID:   "A1",
			Items:     []domain.OrderItem{{SKU: "S1", Qty: 1, UnitPrice: 500}},
			Timestamp: time.Now().UTC(),
		},
		{
			VendorID:  "V002",
			OrderID:   "A2",
			Items:     []domain.OrderItem{{SKU: "S2", Qty: 3, UnitPrice: 400}},
			Timestamp: time.Now().UTC(),
		},
	}

	for _, event := range events {
		_, err := s.EventService.PublishEvent(s.Ctx, event)
		s.Require().NoError(err)
	}

	s.Require().Eventually(func() bool {
		return s.countRows("V002") == 2
	}, 15*time.Second, 100*time.Millisecond)

	metrics, err := s.EventService.GetVendorMetrics(s.Ctx, "V002")
	s.Require().NoError(err)

	s.Require().Equal("V002", metrics.VendorID)
	s.Require().EqualValues(2, metrics.TotalOrders)
	s.Require().Equal(1700.0, metrics.TotalRevenue)
	s.Require().EqualValues(1, metrics.HighValueOrders)
	s.Require().EqualValues(0, metrics.AnomalousOrders)

	today := time.Now().UTC().Format("2006-01-02")
	s.Require().EqualValues(2, metrics.Last7DaysVolume[today])
}

func (s *IntegrationTestSuite) TestVendorMetricsWindowIncludesSeventhDay() {
	// a row from any time of day on the seventh calendar day back still
	// belongs in the volume window
	boundary := time.Now().UTC().AddDate(0, 0, -7)
	edge := time.Date(
		boundary.Year(), boundary.Month(), boundary.Day(),
		23, 59, 0, 0, time.UTC,
	)

	record := &domain.OrderEventRecord{
		OrderID:     "EDGE1",
		VendorID:    "V003",
		EventType:   domain.EventOrderCreated,
		Payload:     json.RawMessage(`{"vendor_id":"V003"}`),
		Timestamp:   edge,
		TotalAmount: 10.0,
	}
	s.Require().NoError(s.Repo.SaveEvent(s.Ctx, record))

	metrics, err := s.EventService.GetVendorMetrics(s.Ctx, "V003")
	s.Require().NoError(err)

	day := edge.Format("2006-01-02")
	s.Require().EqualValues(1, metrics.Last7DaysVolume[day])
}
