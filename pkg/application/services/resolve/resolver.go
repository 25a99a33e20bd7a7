package resolve

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
)

// Side selects which side of a demand line a location scan narrows on
type Side int

const (
	SideSource Side = iota
	SideDest
)

// WorkingSet is the candidate set a scan is resolved against
type WorkingSet struct {
	Lines []*entities.DemandLine
	Side  Side
}

// OutcomeKind classifies a resolution result
type OutcomeKind int

const (
	Match OutcomeKind = iota
	Ambiguous
	NotFound
)

// String method for OutcomeKind enum
func (k OutcomeKind) String() string {
	switch k {
	case Match:
		return "Match"
	case Ambiguous:
		return "Ambiguous"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Outcome is the typed result of resolving one scanned code. Resolution
// is pure classification; no state is mutated.
type Outcome struct {
	Kind OutcomeKind

	// Line is set on a Match that narrowed to exactly one line.
	Line *entities.DemandLine
	// Lines is the narrowed candidate set (all grouped lines when a
	// package resolved the match).
	Lines []*entities.DemandLine

	// What the code itself identified, when anything did.
	Location *entities.Location
	Package  *entities.Package
	Product  *entities.Product
	Lot      *entities.Lot

	// DefaultQty is the quantity a single scan of this code stands
	// for: 1 for plain barcodes, the contained quantity for
	// packaging barcodes.
	DefaultQty decimal.Decimal

	// Discriminator names what to scan next to break an ambiguity.
	Discriminator string
}

// Resolver classifies scanned codes against a working set, walking the
// scan hierarchy location, package, product, packaging, lot in that
// order.
type Resolver struct {
	log *zap.Logger
}

// NewResolver creates a new barcode resolver
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// Resolve classifies code against the working set
func (r *Resolver) Resolve(ctx context.Context, gw repositories.LookupRepository, code string, ws WorkingSet) (*Outcome, error) {
	if loc, err := gw.FindLocation(ctx, code); err != nil {
		return nil, err
	} else if loc != nil {
		narrowed, err := r.narrowByLocation(ctx, gw, loc, ws)
		if err != nil {
			return nil, err
		}
		out := r.finish(narrowed, ws)
		out.Location = loc
		return out, nil
	}

	if pkg, err := gw.FindPackage(ctx, code); err != nil {
		return nil, err
	} else if pkg != nil {
		narrowed := narrowBy(ws.Lines, func(l *entities.DemandLine) bool {
			return l.SourcePackageID == pkg.ID
		})
		out := r.finish(narrowed, ws)
		out.Package = pkg
		return out, nil
	}

	if product, err := gw.FindProduct(ctx, code); err != nil {
		return nil, err
	} else if product != nil {
		out := r.resolveProduct(product, decimal.NewFromInt(1), ws)
		return out, nil
	}

	if product, packaging, err := gw.FindPackaging(ctx, code); err != nil {
		return nil, err
	} else if product != nil {
		out := r.resolveProduct(product, packaging.ContainedQty, ws)
		return out, nil
	}

	if lots, err := gw.FindLots(ctx, code); err != nil {
		return nil, err
	} else if len(lots) > 0 {
		return r.resolveLot(lots, ws), nil
	}

	r.log.Debug("scan matched nothing", zap.String("code", code))
	return &Outcome{Kind: NotFound, DefaultQty: decimal.NewFromInt(1)}, nil
}

// narrowByLocation keeps lines whose relevant side sits at loc or one
// of its sublocations
func (r *Resolver) narrowByLocation(ctx context.Context, gw repositories.LookupRepository, loc *entities.Location, ws WorkingSet) ([]*entities.DemandLine, error) {
	var narrowed []*entities.DemandLine
	for _, line := range ws.Lines {
		sideID := line.SourceLocationID
		if ws.Side == SideDest {
			sideID = line.DestLocationID
		}
		side, err := gw.GetLocation(ctx, sideID)
		if err != nil {
			if errors.Is(err, entities.ErrRecordGone) {
				continue
			}
			return nil, err
		}
		if side.IsSublocationOf(loc) {
			narrowed = append(narrowed, line)
		}
	}
	return narrowed, nil
}

func (r *Resolver) resolveProduct(product *entities.Product, defaultQty decimal.Decimal, ws WorkingSet) *Outcome {
	narrowed := narrowBy(ws.Lines, func(l *entities.DemandLine) bool {
		return l.ProductID == product.ID
	})

	// A product scan alone cannot identify tracked stock; the narrowed
	// set must agree on a single lot.
	if product.Tracking.Tracked() && distinctLots(narrowed) > 1 {
		return &Outcome{
			Kind:          Ambiguous,
			Lines:         narrowed,
			Product:       product,
			DefaultQty:    defaultQty,
			Discriminator: "scan a lot",
		}
	}

	out := r.finish(narrowed, ws)
	out.Product = product
	out.DefaultQty = defaultQty
	return out
}

func (r *Resolver) resolveLot(lots []*entities.Lot, ws WorkingSet) *Outcome {
	byID := make(map[uuid.UUID]*entities.Lot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	narrowed := narrowBy(ws.Lines, func(l *entities.DemandLine) bool {
		return byID[l.LotID] != nil
	})
	out := r.finish(narrowed, ws)
	if out.Kind == Match && out.Line != nil {
		out.Lot = byID[out.Line.LotID]
	}
	return out
}

// finish applies the tie-break policy to a narrowed set
func (r *Resolver) finish(narrowed []*entities.DemandLine, ws WorkingSet) *Outcome {
	out := &Outcome{Lines: narrowed, DefaultQty: decimal.NewFromInt(1)}

	switch len(narrowed) {
	case 0:
		out.Kind = NotFound
	case 1:
		out.Kind = Match
		out.Line = narrowed[0]
	default:
		// Several lines may still be one physical action when a single
		// source package groups all of them.
		if pkgID := commonSourcePackage(narrowed); pkgID != uuid.Nil {
			out.Kind = Match
			return out
		}
		out.Kind = Ambiguous
		out.Discriminator = discriminator(narrowed)
	}
	return out
}

func narrowBy(lines []*entities.DemandLine, keep func(*entities.DemandLine) bool) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, l := range lines {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func commonSourcePackage(lines []*entities.DemandLine) uuid.UUID {
	first := lines[0].SourcePackageID
	if first == uuid.Nil {
		return uuid.Nil
	}
	for _, l := range lines[1:] {
		if l.SourcePackageID != first {
			return uuid.Nil
		}
	}
	return first
}

func distinctLots(lines []*entities.DemandLine) int {
	seen := make(map[uuid.UUID]bool)
	for _, l := range lines {
		seen[l.LotID] = true
	}
	return len(seen)
}

func distinctProducts(lines []*entities.DemandLine) int {
	seen := make(map[uuid.UUID]bool)
	for _, l := range lines {
		seen[l.ProductID] = true
	}
	return len(seen)
}

// discriminator names the scan that would split the remaining
// candidates apart
func discriminator(lines []*entities.DemandLine) string {
	if distinctProducts(lines) > 1 {
		return "scan a product"
	}
	if distinctLots(lines) > 1 {
		return "scan a lot"
	}
	return "scan a package"
}
