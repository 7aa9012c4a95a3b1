package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrBusy                 = errors.New("a submission is already in progress")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
	ErrCartNotFound         = errors.New("cart not found")
)

// Field keys reported by ValidationError
const (
	FieldDeliveryAddress = "deliveryAddress"
	FieldSenderNumber    = "senderNumber"
	FieldLastThreeDigits = "lastThreeDigits"
	FieldDistance        = "distance"
	FieldPaymentMethod   = "paymentMethod"
	FieldItems           = "items"
	FieldMedicineTotal   = "medicineTotal"
	FieldImage           = "image"
	FieldNote            = "note"
	FieldQuery           = "query"
)

// ValidationError lists every offending field of a submission so a form
// can flag all of them at once.
type ValidationError struct {
	Fields map[string]bool
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Keys(), ", ")
}

// Keys returns the offending field names, sorted
func (e *ValidationError) Keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k, bad := range e.Fields {
		if bad {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether a field failed
func (e *ValidationError) Has(field string) bool {
	return e.Fields[field]
}

func (e *ValidationError) add(field string) {
	if e.Fields == nil {
		e.Fields = make(map[string]bool)
	}
	e.Fields[field] = true
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
