package service

import (
	"context"
	"testing"

	"shanti-orders/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleImage = "data:image/png;base64,iVBORw0KGgo="

func TestPrescriptionSubmitDistanceThree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := NewPrescriptionComposer("p1", f.orders)
	p.SetImage(sampleImage)

	details := validDetails()
	details.Distance = models.Distance3
	order, err := p.Submit(ctx, details)
	require.NoError(t, err)

	assert.Equal(t, int64(30), order.DeliveryCharge)
	assert.Equal(t, models.OrderTypePrescription, order.Type)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, sampleImage, order.ImageURL)
	assert.Nil(t, order.Items)

	orders, err := f.store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	assert.Error(t, p.Validate(details), "image is cleared after submit")
}

func TestPrescriptionRequiresImage(t *testing.T) {
	f := newFixture(t)
	p := NewPrescriptionComposer("p1", f.orders)

	_, err := p.Submit(context.Background(), validDetails())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{FieldImage}, verr.Keys())
}

func TestPrescriptionHasNoMinimumButNoCashOnDelivery(t *testing.T) {
	d := validDetails()
	assert.NoError(t, ValidatePrescription(sampleImage, d))

	d.PaymentMethod = models.PaymentCOD
	err := ValidatePrescription(sampleImage, d)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{FieldPaymentMethod}, verr.Keys())
}
