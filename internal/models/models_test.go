package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicineID(t *testing.T) {
	assert.Equal(t, "napa-extra", MedicineID("  Napa   Extra "))
	assert.Equal(t, MedicineID("napa extra"), MedicineID("NAPA EXTRA"))
	assert.Equal(t, "", MedicineID("   "))
}

func TestDeliveryCharge(t *testing.T) {
	cases := map[Distance]int64{Distance1To2: 20, Distance3: 30, Distance4To5: 40}
	for d, want := range cases {
		got, ok := DeliveryCharge(d)
		assert.True(t, ok)
		assert.Equal(t, want, got, "distance %s", d)
	}

	_, ok := DeliveryCharge("10")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, CanTransition(OrderStatusConfirmed, OrderStatusDelivered))
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusConfirmed, OrderStatusCancelled))

	assert.False(t, CanTransition(OrderStatusPending, OrderStatusDelivered))
	assert.False(t, CanTransition(OrderStatusConfirmed, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusPending))

	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())

	assert.Equal(t, []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}, OrderStatusConfirmed.Next())
	assert.Empty(t, OrderStatusCancelled.Next())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, st)

	_, err = ParseStatus("shipped")
	assert.Error(t, err)
}

func TestOrderTotals(t *testing.T) {
	order := &Order{
		Type: OrderTypeCart,
		Items: []CartItem{
			{Medicine: Medicine{Name: "X", Price: decimal.NewFromInt(100)}, Quantity: 2},
			{Medicine: Medicine{Name: "Y", Price: decimal.RequireFromString("2.5")}, Quantity: 10},
		},
		DeliveryCharge: 30,
	}

	assert.True(t, order.MedicineTotal().Equal(decimal.NewFromInt(225)))
	assert.True(t, order.GrandTotal().Equal(decimal.NewFromInt(255)))
}

func TestOrderJSONLayout(t *testing.T) {
	order := Order{
		ID:       "ABC123XYZ",
		Type:     OrderTypePrescription,
		ImageURL: "data:image/png;base64,AAAA",
		Distance: Distance3,
		Status:   OrderStatusPending,
	}

	raw, err := json.Marshal(order)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "prescription", fields["type"])
	assert.Equal(t, "3", fields["distance"])
	assert.NotContains(t, fields, "items")
	assert.Contains(t, fields, "imageUrl")
}

func TestPriceDecodesFromNumber(t *testing.T) {
	var m Medicine
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Napa","price":1.2}`), &m))
	assert.True(t, m.Price.Equal(decimal.RequireFromString("1.2")))
}
