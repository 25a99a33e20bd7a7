package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewDemandLine_Validation(t *testing.T) {
	transferID := uuid.New()
	productID := uuid.New()
	src := uuid.New()
	dst := uuid.New()

	line, err := NewDemandLine(transferID, productID, src, dst, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("NewDemandLine failed: %v", err)
	}
	if line.State != LineUnreserved {
		t.Errorf("expected new line to be unreserved, got %s", line.State)
	}
	if !line.DoneQty.IsZero() {
		t.Errorf("expected zero done quantity, got %s", line.DoneQty)
	}

	if _, err := NewDemandLine(uuid.Nil, productID, src, dst, decimal.NewFromInt(1)); err == nil {
		t.Error("expected error for missing transfer")
	}
	if _, err := NewDemandLine(transferID, productID, src, dst, decimal.Zero); err == nil {
		t.Error("expected error for zero quantity")
	}
	if _, err := NewDemandLine(transferID, productID, src, dst, decimal.NewFromInt(-3)); err == nil {
		t.Error("expected error for negative quantity")
	}
}

func TestDemandLine_Buffered(t *testing.T) {
	line, _ := NewDemandLine(uuid.New(), uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(5))
	line.State = LineReserved

	if line.Buffered() {
		t.Error("line with no picked quantity must not be buffered")
	}

	line.DoneQty = decimal.NewFromInt(2)
	if line.Buffered() {
		t.Error("line without a destination package must not be buffered")
	}

	line.DestPackageID = uuid.New()
	if !line.Buffered() {
		t.Error("picked line with destination package should be buffered")
	}

	line.State = LineDone
	if line.Buffered() {
		t.Error("done line must not be buffered")
	}
}

func TestTransfer_RefreshState(t *testing.T) {
	transfer, err := NewTransfer("PICK-001", uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("NewTransfer failed: %v", err)
	}

	a, _ := NewDemandLine(transfer.ID, uuid.New(), transfer.SourceLocationID, transfer.DestLocationID, decimal.NewFromInt(4))
	b, _ := NewDemandLine(transfer.ID, uuid.New(), transfer.SourceLocationID, transfer.DestLocationID, decimal.NewFromInt(6))
	lines := []*DemandLine{a, b}

	a.State = LineReserved
	transfer.RefreshState(lines)
	if transfer.State != TransferPartiallyAssigned {
		t.Errorf("expected partially assigned, got %s", transfer.State)
	}

	b.State = LineReserved
	transfer.RefreshState(lines)
	if transfer.State != TransferAssigned {
		t.Errorf("expected assigned, got %s", transfer.State)
	}

	a.State = LineDone
	b.State = LineCancelled
	transfer.RefreshState(lines)
	if transfer.State != TransferDone {
		t.Errorf("cancelled lines must not block completion, got %s", transfer.State)
	}
}
