package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching the AI collaborator's reply.
	decimal.MarshalJSONWithoutQuotes = true
}

// Medicine represents a catalog or AI-detected medicine
type Medicine struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// MedicineID derives the canonical identity of a medicine from its name.
// Case and inner whitespace are not significant.
func MedicineID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Canonical returns a copy whose ID is derived from the name
func (m Medicine) Canonical() Medicine {
	m.ID = MedicineID(m.Name)
	return m
}

// CartItem represents a medicine line in a cart or order
type CartItem struct {
	Medicine Medicine `json:"medicine"`
	Quantity int      `json:"quantity"`
}

// LineTotal returns price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Medicine.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderType distinguishes cart orders from prescription uploads
type OrderType string

const (
	OrderTypeCart         OrderType = "cart"
	OrderTypePrescription OrderType = "prescription"
)

// Order represents a submitted customer order
type Order struct {
	ID              string        `json:"id"`
	Timestamp       int64         `json:"timestamp"`
	Type            OrderType     `json:"type"`
	Items           []CartItem    `json:"items,omitempty"`
	ImageURL        string        `json:"imageUrl,omitempty"`
	DeliveryAddress string        `json:"deliveryAddress"`
	Distance        Distance      `json:"distance"`
	DeliveryCharge  int64         `json:"deliveryCharge"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	SenderNumber    string        `json:"senderNumber"`
	LastThreeDigits string        `json:"lastThreeDigits"`
	Status          OrderStatus   `json:"status"`
}

// MedicineTotal sums the line totals of a cart order.
// Prescription orders are priced later and total zero here.
func (o *Order) MedicineTotal() decimal.Decimal {
	return SumItems(o.Items)
}

// GrandTotal is the medicine total plus the frozen delivery charge
func (o *Order) GrandTotal() decimal.Decimal {
	return o.MedicineTotal().Add(decimal.NewFromInt(o.DeliveryCharge))
}

// SumItems sums line totals
func SumItems(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Distance is a delivery distance band in kilometres
type Distance string

const (
	Distance1To2 Distance = "1-2"
	Distance3    Distance = "3"
	Distance4To5 Distance = "4-5"
)

// DistanceBands in ascending order
var DistanceBands = []Distance{Distance1To2, Distance3, Distance4To5}

var deliveryCharges = map[Distance]int64{
	Distance1To2: 20,
	Distance3:    30,
	Distance4To5: 40,
}

// DeliveryCharge returns the charge for a band and whether the band is known
func DeliveryCharge(d Distance) (int64, bool) {
	charge, ok := deliveryCharges[d]
	return charge, ok
}

// PaymentMethod is the MFS channel (or cash on delivery) chosen by the customer
type PaymentMethod string

const (
	PaymentBkash  PaymentMethod = "bkash"
	PaymentNagad  PaymentMethod = "nagad"
	PaymentRocket PaymentMethod = "rocket"
	PaymentCOD    PaymentMethod = "cod"
)

// CartPaymentMethods are accepted on cart checkout
var CartPaymentMethods = []PaymentMethod{PaymentBkash, PaymentNagad, PaymentRocket, PaymentCOD}

// PrescriptionPaymentMethods are accepted on prescription upload
var PrescriptionPaymentMethods = []PaymentMethod{PaymentBkash, PaymentNagad, PaymentRocket}

// Totals is the price breakdown of a cart
type Totals struct {
	MedicineTotal  decimal.Decimal `json:"medicine_total"`
	DeliveryCharge int64           `json:"delivery_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}
