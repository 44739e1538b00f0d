package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalAmount(t *testing.T) {
	event := &OrderEvent{
		VendorID: "V001",
		Items: []OrderItem{
			{SKU: "SKU1", Qty: 2, UnitPrice: 100},
			{SKU: "SKU2", Qty: 1, UnitPrice: 50},
		},
	}

	require.Equal(t, 250.0, event.TotalAmount())
}

func TestTotalAmountNoItems(t *testing.T) {
	event := &OrderEvent{VendorID: "V001"}

	require.Equal(t, 0.0, event.TotalAmount())
}
