package entities

import (
	"fmt"

	"github.com/google/uuid"
)

// Package is a container of stock sitting at a location. Packages are
// scanned by name; a package may be empty, hold a single product, or mix
// products and lots.
type Package struct {
	ID         uuid.UUID
	Name       string
	LocationID uuid.UUID
}

// NewPackage creates a validated Package at a location
func NewPackage(name string, locationID uuid.UUID) (*Package, error) {
	if name == "" {
		return nil, fmt.Errorf("package name cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, fmt.Errorf("package location cannot be empty")
	}

	return &Package{
		ID:         uuid.New(),
		Name:       name,
		LocationID: locationID,
	}, nil
}
