package entities

import (
	"testing"
)

func TestLocation_Hierarchy(t *testing.T) {
	wh, err := NewLocation("WH", "LOC-WH", nil)
	if err != nil {
		t.Fatalf("NewLocation failed: %v", err)
	}
	stock, err := NewLocation("Stock", "LOC-STOCK", wh)
	if err != nil {
		t.Fatalf("NewLocation failed: %v", err)
	}
	bin, err := NewLocation("Bin-01", "LOC-BIN-01", stock)
	if err != nil {
		t.Fatalf("NewLocation failed: %v", err)
	}

	if !bin.IsSublocationOf(wh) {
		t.Error("expected bin to be a sublocation of the warehouse root")
	}
	if !bin.IsSublocationOf(bin) {
		t.Error("expected containment to be reflexive")
	}
	if wh.IsSublocationOf(bin) {
		t.Error("containment must not be symmetric")
	}
}

func TestLocation_PrefixSiblingsAreNotContained(t *testing.T) {
	wh, _ := NewLocation("WH", "LOC-WH", nil)
	a, _ := NewLocation("Zone1", "LOC-Z1", wh)
	b, _ := NewLocation("Zone10", "LOC-Z10", wh)

	if b.IsSublocationOf(a) {
		t.Errorf("Zone10 must not be treated as inside Zone1 (paths %q vs %q)", b.Path, a.Path)
	}
}

func TestNewLocation_Validation(t *testing.T) {
	if _, err := NewLocation("", "B", nil); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewLocation("A", "", nil); err == nil {
		t.Error("expected error for empty barcode")
	}
	if _, err := NewLocation("A/B", "B", nil); err == nil {
		t.Error("expected error for name containing '/'")
	}
}
