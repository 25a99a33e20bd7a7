package entities

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Location is a node in the warehouse location hierarchy. The Path holds
// the full slash-separated chain of ancestor names, so containment checks
// are pure string operations.
type Location struct {
	ID      uuid.UUID
	Name    string
	Barcode string
	Path    string
}

// NewLocation creates a validated Location under an optional parent
func NewLocation(name, barcode string, parent *Location) (*Location, error) {
	if name == "" {
		return nil, fmt.Errorf("location name cannot be empty")
	}
	if barcode == "" {
		return nil, fmt.Errorf("location barcode cannot be empty")
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("location name cannot contain '/': %s", name)
	}

	path := name
	if parent != nil {
		path = parent.Path + "/" + name
	}

	return &Location{
		ID:      uuid.New(),
		Name:    name,
		Barcode: barcode,
		Path:    path,
	}, nil
}

// IsSublocationOf reports whether l is contained in other. A location is
// a sublocation of itself.
func (l *Location) IsSublocationOf(other *Location) bool {
	if other == nil {
		return false
	}
	if l.Path == other.Path {
		return true
	}
	return strings.HasPrefix(l.Path, other.Path+"/")
}
