package domain

import (
	"encoding/json"
	"time"
)

const (
	// EventOrderCreated is the only event type this pipeline persists.
	EventOrderCreated = "order_created"

	// HighValueThreshold is exclusive: a total of exactly 1000.0 is not
	// high value.
	HighValueThreshold = 1000.0
)

// OrderItem is validated for shape only: a zero qty or free unit price
// is an accepted order line, it just contributes nothing to the total.
type OrderItem struct {
	SKU       string  `json:"sku" validate:"required"`
	Qty       int64   `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderEvent is the wire shape published by vendors. It is immutable
// once published; OrderID is generated when the vendor omits it. An
// empty items list is valid and persists with a zero total.
type OrderEvent struct {
	VendorID  string      `json:"vendor_id" validate:"required"`
	OrderID   string      `json:"order_id"`
	Items     []OrderItem `json:"items" validate:"required,dive"`
	Timestamp time.Time   `json:"timestamp" validate:"required"`
}

// TotalAmount sums qty * unit_price over all items. Computed once at
// processing time and never recomputed later.
func (e *OrderEvent) TotalAmount() float64 {
	var total float64
	for _, item := range e.Items {
		total += float64(item.Qty) * item.UnitPrice
	}
	return total
}

// OrderEventRecord is the persisted row. Payload holds the raw
// validated event verbatim for audit and replay.
type OrderEventRecord struct {
	ID          int64           `db:"id"`
	OrderID     string          `db:"order_id"`
	VendorID    string          `db:"vendor_id"`
	EventType   string          `db:"event_type"`
	Payload     json.RawMessage `db:"payload"`
	Timestamp   time.Time       `db:"timestamp"`
	TotalAmount float64         `db:"total_amount"`
	HighValue   bool            `db:"high_value"`
}

// VendorMetrics is the rollup served for a single vendor.
type VendorMetrics struct {
	VendorID        string           `json:"vendor_id"`
	TotalOrders     int64            `json:"total_orders"`
	TotalRevenue    float64          `json:"total_revenue"`
	HighValueOrders int64            `json:"high_value_orders"`
	AnomalousOrders int64            `json:"anomalous_orders"`
	Last7DaysVolume map[string]int64 `json:"last_7_days_volume"`
}
