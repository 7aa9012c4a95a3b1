package interpreter

import (
	"context"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Interpreter is the AI collaborator behind note reading and suggestions
type Interpreter interface {
	Interpret(ctx context.Context, note string) ([]InterpretedItem, error)
	Suggest(ctx context.Context, query string) (*Suggestions, error)
}

// InterpretedItem is one medicine read out of a customer's note.
// Price is per single piece.
type InterpretedItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
}

type Suggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type Suggestions struct {
	Medicines  []Suggestion `json:"medicines"`
	Disclaimer string       `json:"disclaimer"`
}

// rawItem mirrors the model reply, where quantity may come back as 2.0
type rawItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Quantity float64         `json:"quantity"`
}

// maxQuantity caps a single interpreted line
const maxQuantity = 1000

func (r rawItem) normalize() InterpretedItem {
	q := 1
	switch rounded := math.Round(r.Quantity); {
	case math.IsNaN(rounded) || rounded < 1:
	case rounded > maxQuantity:
		q = maxQuantity
	default:
		q = int(rounded)
	}
	price := r.Price
	if price.IsNegative() {
		price = decimal.Zero
	}
	return InterpretedItem{
		Name:     strings.TrimSpace(r.Name),
		Price:    price,
		Category: strings.TrimSpace(r.Category),
		Quantity: q,
	}
}
