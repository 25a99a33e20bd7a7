package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/domain/entities"
)

// DemandValidator checks demand line and reservation invariants before
// they are persisted
type DemandValidator struct{}

// NewDemandValidator creates a new demand validator
func NewDemandValidator() *DemandValidator {
	return &DemandValidator{}
}

// ValidateLine checks a single line's internal invariants
func (v *DemandValidator) ValidateLine(line *entities.DemandLine) error {
	if line.RequestedQty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("requested quantity must be positive, got %s", line.RequestedQty)
	}
	if line.ReservedQty.IsNegative() {
		return fmt.Errorf("reserved quantity cannot be negative, got %s", line.ReservedQty)
	}
	if line.ReservedQty.GreaterThan(line.RequestedQty) {
		return fmt.Errorf("reserved quantity %s exceeds requested %s", line.ReservedQty, line.RequestedQty)
	}
	if line.DoneQty.IsNegative() {
		return fmt.Errorf("done quantity cannot be negative, got %s", line.DoneQty)
	}
	if line.State.Active() && line.DoneQty.GreaterThan(line.ReservedQty) {
		return fmt.Errorf("done quantity %s exceeds reserved %s", line.DoneQty, line.ReservedQty)
	}
	return nil
}

// ValidateReservations checks that reservations at one stock position do
// not exceed the physically present quantity
func (v *DemandValidator) ValidateReservations(onHand decimal.Decimal, lines []*entities.DemandLine) error {
	reserved := decimal.Zero
	for _, l := range lines {
		if !l.State.Active() {
			continue
		}
		reserved = reserved.Add(l.ReservedQty)
	}
	if reserved.GreaterThan(onHand) {
		return fmt.Errorf("reserved %s exceeds on-hand %s", reserved, onHand)
	}
	return nil
}

// ValidateSplit checks the conservation property of a split: the
// original requested quantity must equal the sum of both parts.
func (v *DemandValidator) ValidateSplit(before decimal.Decimal, processed, remainder *entities.DemandLine) error {
	total := processed.RequestedQty
	if remainder != nil {
		total = total.Add(remainder.RequestedQty)
	}
	if !total.Equal(before) {
		return fmt.Errorf("split lost quantity: %s != %s", total, before)
	}
	return nil
}
