package entities

import (
	"fmt"

	"github.com/google/uuid"
)

// TransferState represents the lifecycle of a transfer
type TransferState int

const (
	TransferDraft TransferState = iota
	TransferPartiallyAssigned
	TransferAssigned
	TransferDone
	TransferCancelled
)

// String method for TransferState enum
func (s TransferState) String() string {
	switch s {
	case TransferDraft:
		return "Draft"
	case TransferPartiallyAssigned:
		return "PartiallyAssigned"
	case TransferAssigned:
		return "Assigned"
	case TransferDone:
		return "Done"
	case TransferCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Transfer groups demand lines that share a picking context: one origin
// scope, one destination scope, one lifecycle.
type Transfer struct {
	ID               uuid.UUID
	Name             string
	SourceLocationID uuid.UUID
	DestLocationID   uuid.UUID
	State            TransferState
}

// NewTransfer creates a validated Transfer in the draft state
func NewTransfer(name string, sourceLocationID, destLocationID uuid.UUID) (*Transfer, error) {
	if name == "" {
		return nil, fmt.Errorf("transfer name cannot be empty")
	}
	if sourceLocationID == uuid.Nil {
		return nil, fmt.Errorf("transfer source location cannot be empty")
	}
	if destLocationID == uuid.Nil {
		return nil, fmt.Errorf("transfer destination location cannot be empty")
	}

	return &Transfer{
		ID:               uuid.New(),
		Name:             name,
		SourceLocationID: sourceLocationID,
		DestLocationID:   destLocationID,
		State:            TransferDraft,
	}, nil
}

// RefreshState recomputes the transfer state from its lines. A transfer
// is done iff every non-cancelled line is done.
func (t *Transfer) RefreshState(lines []*DemandLine) {
	if t.State == TransferCancelled {
		return
	}

	open, done, reserved := 0, 0, 0
	for _, l := range lines {
		switch l.State {
		case LineCancelled:
			continue
		case LineDone:
			done++
		case LineReserved, LinePartiallyReserved:
			open++
			reserved++
		default:
			open++
		}
	}

	switch {
	case open == 0 && done > 0:
		t.State = TransferDone
	case reserved > 0 && reserved == open:
		t.State = TransferAssigned
	case reserved > 0:
		t.State = TransferPartiallyAssigned
	default:
		t.State = TransferDraft
	}
}
