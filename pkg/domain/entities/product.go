package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrackingMode represents how units of a product are tracked
type TrackingMode int

const (
	TrackingNone TrackingMode = iota
	TrackingLot
	TrackingSerial
)

// String method for TrackingMode enum
func (t TrackingMode) String() string {
	switch t {
	case TrackingNone:
		return "None"
	case TrackingLot:
		return "Lot"
	case TrackingSerial:
		return "Serial"
	default:
		return "Unknown"
	}
}

// Tracked reports whether picking this product requires lot or serial
// identification
func (t TrackingMode) Tracked() bool {
	return t == TrackingLot || t == TrackingSerial
}

// Packaging represents a scannable multi-unit packaging of a product.
// Scanning a packaging barcode resolves to the owning product with
// ContainedQty as the default pick quantity.
type Packaging struct {
	Barcode      string
	Name         string
	ContainedQty decimal.Decimal
}

// Product represents a stock-keeping unit. Immutable for the workflow
// engine's purposes.
type Product struct {
	ID         uuid.UUID
	Name       string
	Barcode    string
	Tracking   TrackingMode
	Packagings []Packaging
}

// NewProduct creates a validated Product
func NewProduct(name, barcode string, tracking TrackingMode) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if barcode == "" {
		return nil, fmt.Errorf("product barcode cannot be empty")
	}

	return &Product{
		ID:       uuid.New(),
		Name:     name,
		Barcode:  barcode,
		Tracking: tracking,
	}, nil
}

// AddPackaging registers a packaging barcode for the product
func (p *Product) AddPackaging(barcode, name string, containedQty decimal.Decimal) error {
	if barcode == "" {
		return fmt.Errorf("packaging barcode cannot be empty")
	}
	if containedQty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("packaging quantity must be positive, got %s", containedQty)
	}

	p.Packagings = append(p.Packagings, Packaging{
		Barcode:      barcode,
		Name:         name,
		ContainedQty: containedQty,
	})
	return nil
}

// PackagingByBarcode returns the packaging matching barcode, or nil
func (p *Product) PackagingByBarcode(barcode string) *Packaging {
	for i := range p.Packagings {
		if p.Packagings[i].Barcode == barcode {
			return &p.Packagings[i]
		}
	}
	return nil
}
