package service

import (
	"context"
	"time"

	"shanti-orders/internal/models"

	"github.com/shopspring/decimal"
)

// BusinessIdentity is printed at the head of every invoice
type BusinessIdentity struct {
	Name    string   `json:"name"`
	Tagline string   `json:"tagline"`
	Address string   `json:"address"`
	Phones  []string `json:"phones"`
	Email   string   `json:"email"`
}

type InvoiceLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// Invoice is the data a print or export renderer needs for one order
type Invoice struct {
	Business        BusinessIdentity     `json:"business"`
	OrderID         string               `json:"order_id"`
	IssuedAt        time.Time            `json:"issued_at"`
	Type            models.OrderType     `json:"type"`
	Status          models.OrderStatus   `json:"status"`
	CustomerPhone   string               `json:"customer_phone"`
	DeliveryAddress string               `json:"delivery_address"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	LastThreeDigits string               `json:"last_three_digits"`
	Lines           []InvoiceLine        `json:"lines"`
	Note            string               `json:"note,omitempty"`
	MedicineTotal   decimal.Decimal      `json:"medicine_total"`
	DeliveryCharge  int64                `json:"delivery_charge"`
	GrandTotal      decimal.Decimal      `json:"grand_total"`
}

const prescriptionNote = "Prescription order (image attached)"

// BuildInvoice prices an order using its stored lines and frozen delivery charge
func BuildInvoice(business BusinessIdentity, order *models.Order) *Invoice {
	inv := &Invoice{
		Business:        business,
		OrderID:         order.ID,
		IssuedAt:        time.UnixMilli(order.Timestamp),
		Type:            order.Type,
		Status:          order.Status,
		CustomerPhone:   order.SenderNumber,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   order.PaymentMethod,
		LastThreeDigits: order.LastThreeDigits,
		Lines:           make([]InvoiceLine, 0, len(order.Items)),
		MedicineTotal:   order.MedicineTotal(),
		DeliveryCharge:  order.DeliveryCharge,
		GrandTotal:      order.GrandTotal(),
	}

	for _, item := range order.Items {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Name:      item.Medicine.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Medicine.Price,
			Amount:    item.LineTotal(),
		})
	}
	if len(inv.Lines) == 0 {
		inv.Note = prescriptionNote
	}
	return inv
}

// Invoice builds the invoice of a stored order
func (a *AdminService) Invoice(ctx context.Context, id string) (*Invoice, error) {
	order, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildInvoice(a.business, order), nil
}
