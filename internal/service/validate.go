package service

import (
	"strings"

	"shanti-orders/internal/models"
	"shanti-orders/internal/util"

	"github.com/shopspring/decimal"
)

// CheckoutDetails are the delivery and payment fields shared by both flows
type CheckoutDetails struct {
	DeliveryAddress string               `json:"delivery_address" form:"delivery_address"`
	Distance        models.Distance      `json:"distance" form:"distance"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" form:"payment_method"`
	SenderNumber    string               `json:"sender_number" form:"sender_number"`
	LastThreeDigits string               `json:"last_three_digits" form:"last_three_digits"`
}

func validateDetails(d CheckoutDetails, methods []models.PaymentMethod, verr *ValidationError) {
	if strings.TrimSpace(d.DeliveryAddress) == "" {
		verr.add(FieldDeliveryAddress)
	}
	if strings.TrimSpace(d.SenderNumber) == "" {
		verr.add(FieldSenderNumber)
	}
	if !isThreeDigits(d.LastThreeDigits) {
		verr.add(FieldLastThreeDigits)
	}
	if _, ok := models.DeliveryCharge(d.Distance); !ok {
		verr.add(FieldDistance)
	}
	if !acceptsMethod(methods, d.PaymentMethod) {
		verr.add(FieldPaymentMethod)
	}
}

// ValidateCart checks a cart checkout. The medicine total must reach
// minOrder; an empty cart is reported under "items".
func ValidateCart(items []models.CartItem, d CheckoutDetails, minOrder int64) error {
	verr := &ValidationError{}
	validateDetails(d, models.CartPaymentMethods, verr)

	if len(items) == 0 {
		verr.add(FieldItems)
	}
	if models.SumItems(items).LessThan(decimal.NewFromInt(minOrder)) {
		verr.add(FieldMedicineTotal)
	}

	return recordFailures(verr.orNil())
}

// ValidatePrescription checks a prescription upload. No minimum amount
// applies since pricing happens after a pharmacist reads the image.
func ValidatePrescription(imageURL string, d CheckoutDetails) error {
	verr := &ValidationError{}
	validateDetails(d, models.PrescriptionPaymentMethods, verr)

	if imageURL == "" {
		verr.add(FieldImage)
	}

	return recordFailures(verr.orNil())
}

func recordFailures(err error) error {
	if verr, ok := err.(*ValidationError); ok {
		for _, field := range verr.Keys() {
			util.ValidationFailuresTotal.WithLabelValues(field).Inc()
		}
	}
	return err
}

func isThreeDigits(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func acceptsMethod(methods []models.PaymentMethod, m models.PaymentMethod) bool {
	for _, accepted := range methods {
		if accepted == m {
			return true
		}
	}
	return false
}
