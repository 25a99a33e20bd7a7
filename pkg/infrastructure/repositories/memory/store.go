package memory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
	"github.com/vsinha/scanflow/pkg/domain/services"
)

// Quant is one physical stock record: a quantity of a product (and
// optionally a lot) sitting at a location, loose or inside a package.
type Quant struct {
	LocationID uuid.UUID
	PackageID  uuid.UUID
	ProductID  uuid.UUID
	LotID      uuid.UUID
	Qty        decimal.Decimal
}

// store holds all gateway state. Its methods assume the caller already
// holds the gateway lock.
type store struct {
	locations   map[uuid.UUID]*entities.Location
	packages    map[uuid.UUID]*entities.Package
	products    map[uuid.UUID]*entities.Product
	lots        map[uuid.UUID]*entities.Lot
	lines       map[uuid.UUID]*entities.DemandLine
	transfers   map[uuid.UUID]*entities.Transfer
	corrections []*entities.CorrectiveRecord
	quants      []*Quant

	validator *services.DemandValidator
}

func newStore() *store {
	return &store{
		locations: make(map[uuid.UUID]*entities.Location),
		packages:  make(map[uuid.UUID]*entities.Package),
		products:  make(map[uuid.UUID]*entities.Product),
		lots:      make(map[uuid.UUID]*entities.Lot),
		lines:     make(map[uuid.UUID]*entities.DemandLine),
		transfers: make(map[uuid.UUID]*entities.Transfer),
		validator: services.NewDemandValidator(),
	}
}

// snapshot deep-copies all mutable state for transaction rollback
func (s *store) snapshot() *store {
	c := newStore()
	for id, l := range s.locations {
		cp := *l
		c.locations[id] = &cp
	}
	for id, p := range s.packages {
		cp := *p
		c.packages[id] = &cp
	}
	for id, p := range s.products {
		cp := *p
		cp.Packagings = append([]entities.Packaging(nil), p.Packagings...)
		c.products[id] = &cp
	}
	for id, l := range s.lots {
		cp := *l
		c.lots[id] = &cp
	}
	for id, l := range s.lines {
		c.lines[id] = l.Clone()
	}
	for id, t := range s.transfers {
		cp := *t
		c.transfers[id] = &cp
	}
	c.corrections = append([]*entities.CorrectiveRecord(nil), s.corrections...)
	for _, q := range s.quants {
		cq := *q
		c.quants = append(c.quants, &cq)
	}
	return c
}

// restore replaces all state with that of the snapshot
func (s *store) restore(snap *store) {
	s.locations = snap.locations
	s.packages = snap.packages
	s.products = snap.products
	s.lots = snap.lots
	s.lines = snap.lines
	s.transfers = snap.transfers
	s.corrections = snap.corrections
	s.quants = snap.quants
}

// --- LookupRepository ---

func (s *store) findLocation(barcode string) *entities.Location {
	for _, l := range s.locations {
		if l.Barcode == barcode {
			return l
		}
	}
	return nil
}

func (s *store) findPackage(name string) *entities.Package {
	for _, p := range s.packages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *store) findProduct(barcode string) *entities.Product {
	for _, p := range s.products {
		if p.Barcode == barcode {
			return p
		}
	}
	return nil
}

func (s *store) findPackaging(barcode string) (*entities.Product, *entities.Packaging) {
	for _, p := range s.products {
		if pk := p.PackagingByBarcode(barcode); pk != nil {
			return p, pk
		}
	}
	return nil, nil
}

func (s *store) findLots(name string) []*entities.Lot {
	var out []*entities.Lot
	for _, l := range s.lots {
		if l.Name == name {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *store) findTransferByName(name string) *entities.Transfer {
	for _, t := range s.transfers {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *store) getLocation(id uuid.UUID) (*entities.Location, error) {
	l, ok := s.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", id, entities.ErrRecordGone)
	}
	return l, nil
}

func (s *store) getPackage(id uuid.UUID) (*entities.Package, error) {
	p, ok := s.packages[id]
	if !ok {
		return nil, fmt.Errorf("package %s: %w", id, entities.ErrRecordGone)
	}
	return p, nil
}

func (s *store) getProduct(id uuid.UUID) (*entities.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, entities.ErrRecordGone)
	}
	return p, nil
}

func (s *store) getLot(id uuid.UUID) (*entities.Lot, error) {
	l, ok := s.lots[id]
	if !ok {
		return nil, fmt.Errorf("lot %s: %w", id, entities.ErrRecordGone)
	}
	return l, nil
}

func (s *store) getLine(id uuid.UUID) (*entities.DemandLine, error) {
	l, ok := s.lines[id]
	if !ok {
		return nil, fmt.Errorf("demand line %s: %w", id, entities.ErrRecordGone)
	}
	return l, nil
}

func (s *store) getTransfer(id uuid.UUID) (*entities.Transfer, error) {
	t, ok := s.transfers[id]
	if !ok {
		return nil, fmt.Errorf("transfer %s: %w", id, entities.ErrRecordGone)
	}
	return t, nil
}

// --- DemandRepository ---

func (s *store) demandLinesIn(locationID uuid.UUID, f repositories.LineFilters) ([]*entities.DemandLine, error) {
	root, err := s.getLocation(locationID)
	if err != nil {
		return nil, err
	}

	var out []*entities.DemandLine
	for _, line := range s.lines {
		src, ok := s.locations[line.SourceLocationID]
		if !ok || !src.IsSublocationOf(root) {
			continue
		}
		if !matchesFilters(line, f) {
			continue
		}
		out = append(out, line)
	}
	sortLines(out)
	return out, nil
}

func matchesFilters(line *entities.DemandLine, f repositories.LineFilters) bool {
	if !f.IncludeDone && !line.State.Active() {
		return false
	}
	if f.IncludeDone && line.State == entities.LineCancelled {
		return false
	}
	if f.Operator != "" && line.AssignedOperator != "" && line.AssignedOperator != f.Operator {
		return false
	}
	if f.ProductID != uuid.Nil && line.ProductID != f.ProductID {
		return false
	}
	if f.LotID != uuid.Nil && line.LotID != f.LotID {
		return false
	}
	if f.PackageID != uuid.Nil && line.SourcePackageID != f.PackageID {
		return false
	}
	return true
}

// sortLines orders lines deterministically so narrowing and envelope
// payloads are stable across calls
func sortLines(lines []*entities.DemandLine) {
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ID.String() < lines[j].ID.String()
	})
}

func (s *store) linesByOperator(operator string) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, line := range s.lines {
		if line.AssignedOperator == operator && line.State.Active() {
			out = append(out, line)
		}
	}
	sortLines(out)
	return out
}

func (s *store) linesForStock(locationID, productID, lotID uuid.UUID) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, line := range s.lines {
		if line.State.Active() && line.SameStock(locationID, productID, lotID) {
			out = append(out, line)
		}
	}
	sortLines(out)
	return out
}

func (s *store) linesForTransfer(transferID uuid.UUID) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, line := range s.lines {
		if line.TransferID == transferID {
			out = append(out, line)
		}
	}
	sortLines(out)
	return out
}

func (s *store) linesForDestPackage(packageID uuid.UUID) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, line := range s.lines {
		if line.State.Active() && line.DestPackageID == packageID {
			out = append(out, line)
		}
	}
	sortLines(out)
	return out
}

func (s *store) saveLine(line *entities.DemandLine) error {
	if err := s.validator.ValidateLine(line); err != nil {
		return fmt.Errorf("invalid demand line: %w", err)
	}
	s.lines[line.ID] = line
	s.refreshTransfer(line.TransferID)
	return nil
}

func (s *store) splitLine(id uuid.UUID, qty decimal.Decimal) (*entities.DemandLine, error) {
	line, err := s.getLine(id)
	if err != nil {
		return nil, err
	}
	if !line.State.Active() {
		return nil, fmt.Errorf("split of terminal line %s: %w", id, entities.ErrAlreadyDone)
	}
	if qty.LessThanOrEqual(decimal.Zero) || qty.GreaterThanOrEqual(line.ReservedQty) {
		return nil, fmt.Errorf("split quantity %s out of range (0, %s)", qty, line.ReservedQty)
	}

	// Any unreserved surplus of a partially reserved line stays on the
	// remainder, so requested quantities are conserved across the split.
	rest := line.ReservedQty.Sub(qty)
	surplus := line.RequestedQty.Sub(line.ReservedQty)
	remainder := line.Clone()
	remainder.ID = uuid.New()
	remainder.RequestedQty = rest
	remainder.ReservedQty = rest
	remainder.DoneQty = decimal.Zero
	remainder.DestPackageID = uuid.Nil
	remainder.AssignedOperator = ""
	remainder.State = entities.LineReserved
	if surplus.IsPositive() {
		remainder.RequestedQty = rest.Add(surplus)
		remainder.State = entities.LinePartiallyReserved
	}

	line.RequestedQty = qty
	line.ReservedQty = qty
	line.State = entities.LineReserved

	s.lines[remainder.ID] = remainder
	s.refreshTransfer(line.TransferID)
	return remainder, nil
}

func (s *store) markDone(id uuid.UUID, destLocationID uuid.UUID) error {
	line, err := s.getLine(id)
	if err != nil {
		return err
	}
	if line.State == entities.LineDone {
		return fmt.Errorf("demand line %s: %w", id, entities.ErrAlreadyDone)
	}
	if line.State == entities.LineCancelled {
		return fmt.Errorf("demand line %s cancelled: %w", id, entities.ErrRecordGone)
	}
	if _, err := s.getLocation(destLocationID); err != nil {
		return err
	}

	moved := line.DoneQty
	if moved.IsZero() {
		moved = line.ReservedQty
		line.DoneQty = moved
	}

	if err := s.moveStock(line.SourceLocationID, line.ProductID, line.LotID, destLocationID, line.DestPackageID, moved); err != nil {
		return err
	}
	if line.DestPackageID != uuid.Nil {
		if pkg, ok := s.packages[line.DestPackageID]; ok {
			pkg.LocationID = destLocationID
		}
	}

	line.DestLocationID = destLocationID
	line.State = entities.LineDone
	s.refreshTransfer(line.TransferID)
	return nil
}

func (s *store) unreserve(id uuid.UUID) error {
	line, err := s.getLine(id)
	if err != nil {
		return err
	}
	if line.State == entities.LineDone {
		return fmt.Errorf("demand line %s: %w", id, entities.ErrAlreadyDone)
	}
	line.ReservedQty = decimal.Zero
	line.State = entities.LineCancelled
	s.refreshTransfer(line.TransferID)
	return nil
}

func (s *store) refreshTransfer(transferID uuid.UUID) {
	t, ok := s.transfers[transferID]
	if !ok {
		return
	}
	t.RefreshState(s.linesForTransfer(transferID))
}

// --- StockRepository ---

func (s *store) onHand(locationID, productID, lotID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, q := range s.quants {
		if q.LocationID == locationID && q.ProductID == productID && q.LotID == lotID {
			total = total.Add(q.Qty)
		}
	}
	return total
}

func (s *store) setOnHand(locationID, productID, lotID uuid.UUID, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return fmt.Errorf("on-hand quantity cannot be negative, got %s", qty)
	}

	kept := s.quants[:0]
	for _, q := range s.quants {
		if q.LocationID == locationID && q.ProductID == productID && q.LotID == lotID {
			continue
		}
		kept = append(kept, q)
	}
	s.quants = kept

	if qty.GreaterThan(decimal.Zero) {
		s.quants = append(s.quants, &Quant{
			LocationID: locationID,
			ProductID:  productID,
			LotID:      lotID,
			Qty:        qty,
		})
	}
	return nil
}

func (s *store) available(locationID, productID, lotID uuid.UUID) decimal.Decimal {
	avail := s.onHand(locationID, productID, lotID)
	for _, line := range s.lines {
		if line.State.Active() && line.SameStock(locationID, productID, lotID) {
			avail = avail.Sub(line.ReservedQty)
		}
	}
	return avail
}

// moveStock takes qty of product/lot out of source quants and books it
// at the destination, inside destPackage when set
func (s *store) moveStock(sourceID, productID, lotID, destID, destPackageID uuid.UUID, qty decimal.Decimal) error {
	remaining := qty
	for _, q := range s.quants {
		if remaining.IsZero() {
			break
		}
		if q.LocationID != sourceID || q.ProductID != productID || q.LotID != lotID {
			continue
		}
		take := decimal.Min(q.Qty, remaining)
		q.Qty = q.Qty.Sub(take)
		remaining = remaining.Sub(take)
	}
	if remaining.GreaterThan(decimal.Zero) {
		return fmt.Errorf("insufficient stock at source for move of %s: %w", qty, entities.ErrRecordGone)
	}

	kept := s.quants[:0]
	for _, q := range s.quants {
		if q.Qty.IsZero() {
			continue
		}
		kept = append(kept, q)
	}
	s.quants = kept

	s.quants = append(s.quants, &Quant{
		LocationID: destID,
		PackageID:  destPackageID,
		ProductID:  productID,
		LotID:      lotID,
		Qty:        qty,
	})
	return nil
}

func (s *store) reserve(transferID, productID, lotID uuid.UUID, qty decimal.Decimal, preferredLocationID uuid.UUID) ([]*entities.DemandLine, error) {
	transfer, err := s.getTransfer(transferID)
	if err != nil {
		return nil, err
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("reservation quantity must be positive, got %s", qty)
	}

	candidates := s.stockLocations(productID, lotID, preferredLocationID)

	var created []*entities.DemandLine
	remaining := qty
	for _, locID := range candidates {
		if remaining.IsZero() {
			break
		}
		avail := s.available(locID, productID, lotID)
		if avail.LessThanOrEqual(decimal.Zero) {
			continue
		}

		take := decimal.Min(avail, remaining)
		line, err := entities.NewDemandLine(transferID, productID, locID, transfer.DestLocationID, take)
		if err != nil {
			return nil, err
		}
		line.LotID = lotID
		line.ReservedQty = take
		line.State = entities.LineReserved
		s.lines[line.ID] = line
		created = append(created, line)
		remaining = remaining.Sub(take)
	}

	if len(created) == 0 {
		return nil, fmt.Errorf("no stock reservable for product %s: %w", productID, entities.ErrNoCapacity)
	}
	s.refreshTransfer(transferID)
	return created, nil
}

// stockLocations lists locations holding the product/lot, preferred
// location first, the rest in stable path order
func (s *store) stockLocations(productID, lotID, preferredID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var rest []uuid.UUID
	for _, q := range s.quants {
		if q.ProductID != productID || q.LotID != lotID || q.Qty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if seen[q.LocationID] || q.LocationID == preferredID {
			seen[q.LocationID] = true
			continue
		}
		seen[q.LocationID] = true
		rest = append(rest, q.LocationID)
	}
	sort.Slice(rest, func(i, j int) bool {
		return s.locationPath(rest[i]) < s.locationPath(rest[j])
	})

	out := make([]uuid.UUID, 0, len(rest)+1)
	if preferredID != uuid.Nil {
		out = append(out, preferredID)
	}
	return append(out, rest...)
}

func (s *store) locationPath(id uuid.UUID) string {
	if l, ok := s.locations[id]; ok {
		return l.Path
	}
	return ""
}
