package service

import (
	"context"
	"sync"

	"shanti-orders/internal/models"
	"shanti-orders/internal/util"
)

// PrescriptionComposer holds a selected prescription image until upload
type PrescriptionComposer struct {
	id     string
	orders *OrderService

	mu       sync.Mutex
	imageURL string
}

func NewPrescriptionComposer(id string, orders *OrderService) *PrescriptionComposer {
	return &PrescriptionComposer{id: id, orders: orders}
}

// SetImage selects the data URL of the prescription photo
func (p *PrescriptionComposer) SetImage(dataURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageURL = dataURL
}

func (p *PrescriptionComposer) image() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imageURL
}

// Validate checks the image and checkout details
func (p *PrescriptionComposer) Validate(details CheckoutDetails) error {
	return ValidatePrescription(p.image(), details)
}

// Submit stores a pending prescription order and clears the image
func (p *PrescriptionComposer) Submit(ctx context.Context, details CheckoutDetails) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "PrescriptionComposer.Submit")
	defer span.End()

	var placed *models.Order
	err := p.orders.withGuard(ctx, p.id, func() error {
		imageURL := p.image()
		if err := ValidatePrescription(imageURL, details); err != nil {
			return err
		}

		order, err := p.orders.place(ctx, models.Order{
			Type:     models.OrderTypePrescription,
			ImageURL: imageURL,
		}, details)
		if err != nil {
			return err
		}

		p.SetImage("")
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}
