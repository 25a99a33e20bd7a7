package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/domain/entities"
)

// LineFilters narrows demand line queries. Zero values are ignored.
type LineFilters struct {
	Operator    string    // only lines unassigned or assigned to this operator
	ProductID   uuid.UUID // only lines for this product
	LotID       uuid.UUID // only lines for this lot
	PackageID   uuid.UUID // only lines whose source package matches
	IncludeDone bool      // include terminal lines
}

// LookupRepository resolves scanned barcodes to entities. A nil result
// with a nil error means the barcode matched nothing; resolution
// continues down the scan hierarchy.
type LookupRepository interface {
	FindLocation(ctx context.Context, barcode string) (*entities.Location, error)
	FindPackage(ctx context.Context, name string) (*entities.Package, error)
	FindProduct(ctx context.Context, barcode string) (*entities.Product, error)
	// FindPackaging resolves a packaging barcode to its owning product
	// and the packaging itself.
	FindPackaging(ctx context.Context, barcode string) (*entities.Product, *entities.Packaging, error)
	// FindLots returns every lot named name, across products.
	FindLots(ctx context.Context, name string) ([]*entities.Lot, error)

	GetLocation(ctx context.Context, id uuid.UUID) (*entities.Location, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*entities.Package, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entities.Product, error)
	GetLot(ctx context.Context, id uuid.UUID) (*entities.Lot, error)
}

// DemandRepository provides access to demand lines and transfers.
// Get* methods return entities.ErrRecordGone when the id no longer
// resolves.
type DemandRepository interface {
	// DemandLinesIn returns active demand lines whose source location is
	// the given location or one of its sublocations.
	DemandLinesIn(ctx context.Context, locationID uuid.UUID, f LineFilters) ([]*entities.DemandLine, error)
	// LinesByOperator returns lines assigned to the operator across the
	// whole system, regardless of location.
	LinesByOperator(ctx context.Context, operator string) ([]*entities.DemandLine, error)
	// LinesForStock returns active lines drawing on the exact
	// (location, product, lot) stock. Used by the stock-issue cascade.
	LinesForStock(ctx context.Context, locationID, productID, lotID uuid.UUID) ([]*entities.DemandLine, error)
	LinesForTransfer(ctx context.Context, transferID uuid.UUID) ([]*entities.DemandLine, error)
	// LinesForDestPackage returns active lines picked into the given
	// destination package. Used to keep a buffer package exclusive to
	// one operator.
	LinesForDestPackage(ctx context.Context, packageID uuid.UUID) ([]*entities.DemandLine, error)
	// FindTransferByName resolves a scanned document name; nil result
	// with nil error when nothing matches.
	FindTransferByName(ctx context.Context, name string) (*entities.Transfer, error)

	GetLine(ctx context.Context, id uuid.UUID) (*entities.DemandLine, error)
	SaveLine(ctx context.Context, line *entities.DemandLine) error
	// SplitLine reduces the line's requested and reserved quantities to
	// qty and returns a new sibling line on the same transfer carrying
	// the rest, reserved against the same source stock.
	SplitLine(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*entities.DemandLine, error)
	// MarkDone finalizes the line into the destination location, moving
	// its picked stock and refreshing the owning transfer's state.
	MarkDone(ctx context.Context, id uuid.UUID, destLocationID uuid.UUID) error
	// Unreserve cancels the line and releases its reservation back to
	// open demand.
	Unreserve(ctx context.Context, id uuid.UUID) error

	GetTransfer(ctx context.Context, id uuid.UUID) (*entities.Transfer, error)
	SaveTransfer(ctx context.Context, transfer *entities.Transfer) error
}

// StockRepository exposes the physical ledger under reservation
// accounting.
type StockRepository interface {
	// OnHand returns the physical quantity at the exact location.
	OnHand(ctx context.Context, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error)
	// SetOnHand corrects the ledger at the exact location.
	SetOnHand(ctx context.Context, locationID, productID, lotID uuid.UUID, qty decimal.Decimal) error
	// Available returns on-hand minus active reservations.
	Available(ctx context.Context, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error)
	// Reserve creates reserved demand lines on the transfer for up to
	// qty, preferring preferredLocationID, then any location holding
	// available stock. Returns entities.ErrNoCapacity (wrapped) when
	// nothing is reservable.
	Reserve(ctx context.Context, transferID, productID, lotID uuid.UUID, qty decimal.Decimal, preferredLocationID uuid.UUID) ([]*entities.DemandLine, error)
}

// CorrectiveRepository stores inventory-count adjustments
type CorrectiveRepository interface {
	CreateCorrectiveRecord(ctx context.Context, rec *entities.CorrectiveRecord) error
	CorrectiveRecords(ctx context.Context) ([]*entities.CorrectiveRecord, error)
}

// Gateway is the full inventory gateway consumed by the workflow
// engine. InTransaction runs fn atomically: every mutation inside
// either commits as a whole or is rolled back.
type Gateway interface {
	LookupRepository
	DemandRepository
	StockRepository
	CorrectiveRepository

	InTransaction(ctx context.Context, fn func(Gateway) error) error
}
