package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LinePickedEvent         = "line.picked"
	LineSplitEvent          = "line.split"
	LineUnloadedEvent       = "line.unloaded"
	ZeroCheckConfirmedEvent = "zero_check.confirmed"
	ZeroCheckDeniedEvent    = "zero_check.denied"
	StockIssueDeclaredEvent = "stock_issue.declared"
	ReservationRevokedEvent = "reservation.revoked"
)

// LinePicked records a quantity picked on a line
type LinePicked struct {
	LineID   uuid.UUID       `json:"line_id"`
	Qty      decimal.Decimal `json:"qty"`
	Operator string          `json:"operator"`
}

// LineSplit records a partial pick splitting off a remainder
type LineSplit struct {
	ProcessedID uuid.UUID       `json:"processed_id"`
	RemainderID uuid.UUID       `json:"remainder_id"`
	Qty         decimal.Decimal `json:"qty"`
}

// LineUnloaded records a buffered line consolidated to its final
// destination
type LineUnloaded struct {
	LineID         uuid.UUID `json:"line_id"`
	DestLocationID uuid.UUID `json:"dest_location_id"`
}

// ZeroCheckResult records the outcome of a zero-check prompt
type ZeroCheckResult struct {
	LocationID uuid.UUID `json:"location_id"`
	ProductID  uuid.UUID `json:"product_id"`
	LotID      uuid.UUID `json:"lot_id"`
	Confirmed  bool      `json:"confirmed"`
}

// StockIssueDeclared records a declared stock issue and its corrected
// ledger quantity
type StockIssueDeclared struct {
	LineID       uuid.UUID       `json:"line_id"`
	LocationID   uuid.UUID       `json:"location_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	LotID        uuid.UUID       `json:"lot_id"`
	CorrectedQty decimal.Decimal `json:"corrected_qty"`
}

// ReservationRevoked records one line unreserved by the stock-issue
// cascade. Operator is the owner of the revoked line, not the
// declaring operator.
type ReservationRevoked struct {
	LineID   uuid.UUID `json:"line_id"`
	Operator string    `json:"operator"`
}
