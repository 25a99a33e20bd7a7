package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CorrectionState represents the lifecycle of a corrective record
type CorrectionState int

const (
	CorrectionDraft CorrectionState = iota
	CorrectionConfirmed
)

// String method for CorrectionState enum
func (s CorrectionState) String() string {
	switch s {
	case CorrectionDraft:
		return "Draft"
	case CorrectionConfirmed:
		return "Confirmed"
	default:
		return "Unknown"
	}
}

// CorrectiveRecord is an inventory-count adjustment produced by the
// zero-check and stock-issue protocols. Draft records prompt a later
// physical audit; confirmed records document an applied correction.
type CorrectiveRecord struct {
	ID         uuid.UUID
	LocationID uuid.UUID
	ProductID  uuid.UUID
	LotID      uuid.UUID // uuid.Nil for untracked products
	Quantity   decimal.Decimal
	State      CorrectionState
	Reason     string
	CreatedAt  time.Time
}

// NewCorrectiveRecord creates a validated CorrectiveRecord
func NewCorrectiveRecord(
	locationID, productID, lotID uuid.UUID,
	quantity decimal.Decimal,
	state CorrectionState,
	reason string,
) (*CorrectiveRecord, error) {
	if locationID == uuid.Nil {
		return nil, fmt.Errorf("corrective record location cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("corrective record product cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("corrective record quantity cannot be negative, got %s", quantity)
	}

	return &CorrectiveRecord{
		ID:         uuid.New(),
		LocationID: locationID,
		ProductID:  productID,
		LotID:      lotID,
		Quantity:   quantity,
		State:      state,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}, nil
}
