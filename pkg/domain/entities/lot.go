package entities

import (
	"fmt"

	"github.com/google/uuid"
)

// Lot identifies a batch (or a single serial) of a tracked product.
// A lot is scoped to exactly one product; the same name may exist for
// different products.
type Lot struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
}

// NewLot creates a validated Lot
func NewLot(productID uuid.UUID, name string) (*Lot, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("lot product cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("lot name cannot be empty")
	}

	return &Lot{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      name,
	}, nil
}
