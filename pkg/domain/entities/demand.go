package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineState represents the reservation lifecycle of a demand line
type LineState int

const (
	LineUnreserved LineState = iota
	LinePartiallyReserved
	LineReserved
	LineDone
	LineCancelled
)

// String method for LineState enum
func (s LineState) String() string {
	switch s {
	case LineUnreserved:
		return "Unreserved"
	case LinePartiallyReserved:
		return "PartiallyReserved"
	case LineReserved:
		return "Reserved"
	case LineDone:
		return "Done"
	case LineCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Active reports whether the line still represents open work
func (s LineState) Active() bool {
	return s != LineDone && s != LineCancelled
}

// DemandLine is the unit of work handed to an operator: move a quantity
// of one product (optionally one lot) from a source location to a
// destination. AssignedOperator is a soft lock only; the stock-issue
// cascade may revoke lines assigned to other operators.
type DemandLine struct {
	ID               uuid.UUID
	TransferID       uuid.UUID
	ProductID        uuid.UUID
	LotID            uuid.UUID // uuid.Nil for untracked products
	SourceLocationID uuid.UUID
	DestLocationID   uuid.UUID
	SourcePackageID  uuid.UUID // uuid.Nil when picking loose stock
	DestPackageID    uuid.UUID // uuid.Nil until a destination package is set
	RequestedQty     decimal.Decimal
	ReservedQty      decimal.Decimal
	DoneQty          decimal.Decimal
	AssignedOperator string
	State            LineState
}

// NewDemandLine creates a validated DemandLine in the unreserved state
func NewDemandLine(
	transferID, productID uuid.UUID,
	sourceLocationID, destLocationID uuid.UUID,
	requestedQty decimal.Decimal,
) (*DemandLine, error) {
	if transferID == uuid.Nil {
		return nil, fmt.Errorf("demand line transfer cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("demand line product cannot be empty")
	}
	if sourceLocationID == uuid.Nil {
		return nil, fmt.Errorf("demand line source location cannot be empty")
	}
	if destLocationID == uuid.Nil {
		return nil, fmt.Errorf("demand line destination location cannot be empty")
	}
	if requestedQty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("demand line quantity must be positive, got %s", requestedQty)
	}

	return &DemandLine{
		ID:               uuid.New(),
		TransferID:       transferID,
		ProductID:        productID,
		SourceLocationID: sourceLocationID,
		DestLocationID:   destLocationID,
		RequestedQty:     requestedQty,
		ReservedQty:      decimal.Zero,
		DoneQty:          decimal.Zero,
		State:            LineUnreserved,
	}, nil
}

// Buffered reports whether the line sits in an operator's buffer: some
// quantity has been picked into a destination package but the line is
// not yet done.
func (l *DemandLine) Buffered() bool {
	return l.State.Active() &&
		l.DoneQty.GreaterThan(decimal.Zero) &&
		l.DestPackageID != uuid.Nil
}

// SameStock reports whether the line draws on the given physical stock
func (l *DemandLine) SameStock(locationID, productID, lotID uuid.UUID) bool {
	return l.SourceLocationID == locationID &&
		l.ProductID == productID &&
		l.LotID == lotID
}

// Clone returns an independent copy of the line
func (l *DemandLine) Clone() *DemandLine {
	c := *l
	return &c
}
