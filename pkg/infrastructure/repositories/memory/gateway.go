package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
)

// Gateway provides an in-memory inventory gateway for tests and demos.
// Calls are serialized by a single lock; InTransaction holds the lock
// for the whole function and rolls back to a snapshot on error, which
// matches the atomicity contract the engine expects from a real
// gateway.
type Gateway struct {
	mu    sync.Mutex
	store *store
	log   *zap.Logger
}

// NewGateway creates an empty in-memory gateway
func NewGateway(log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		store: newStore(),
		log:   log,
	}
}

// Verify interface compliance
var _ repositories.Gateway = (*Gateway)(nil)
var _ repositories.Gateway = (*txGateway)(nil)

// InTransaction runs fn against a transactional view. All mutations
// commit together; any error restores the pre-transaction state.
func (g *Gateway) InTransaction(ctx context.Context, fn func(repositories.Gateway) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := g.store.snapshot()
	if err := fn(&txGateway{store: g.store}); err != nil {
		g.store.restore(snap)
		g.log.Debug("transaction rolled back", zap.Error(err))
		return err
	}
	return nil
}

// --- LookupRepository ---

func (g *Gateway) FindLocation(ctx context.Context, barcode string) (*entities.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.findLocation(barcode), nil
}

func (g *Gateway) FindPackage(ctx context.Context, name string) (*entities.Package, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.findPackage(name), nil
}

func (g *Gateway) FindProduct(ctx context.Context, barcode string) (*entities.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.findProduct(barcode), nil
}

func (g *Gateway) FindPackaging(ctx context.Context, barcode string) (*entities.Product, *entities.Packaging, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, pk := g.store.findPackaging(barcode)
	return p, pk, nil
}

func (g *Gateway) FindLots(ctx context.Context, name string) ([]*entities.Lot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.findLots(name), nil
}

func (g *Gateway) GetLocation(ctx context.Context, id uuid.UUID) (*entities.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.getLocation(id)
}

func (g *Gateway) GetPackage(ctx context.Context, id uuid.UUID) (*entities.Package, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.getPackage(id)
}

func (g *Gateway) GetProduct(ctx context.Context, id uuid.UUID) (*entities.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.getProduct(id)
}

func (g *Gateway) GetLot(ctx context.Context, id uuid.UUID) (*entities.Lot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.getLot(id)
}

// --- DemandRepository ---

func (g *Gateway) DemandLinesIn(ctx context.Context, locationID uuid.UUID, f repositories.LineFilters) ([]*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.demandLinesIn(locationID, f)
}

func (g *Gateway) LinesByOperator(ctx context.Context, operator string) ([]*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.linesByOperator(operator), nil
}

func (g *Gateway) LinesForStock(ctx context.Context, locationID, productID, lotID uuid.UUID) ([]*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.linesForStock(locationID, productID, lotID), nil
}

func (g *Gateway) LinesForTransfer(ctx context.Context, transferID uuid.UUID) ([]*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.linesForTransfer(transferID), nil
}

func (g *Gateway) LinesForDestPackage(ctx context.Context, packageID uuid.UUID) ([]*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.linesForDestPackage(packageID), nil
}

func (g *Gateway) FindTransferByName(ctx context.Context, name string) (*entities.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.findTransferByName(name), nil
}

func (g *Gateway) GetLine(ctx context.Context, id uuid.UUID) (*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.getLine(id)
}

func (g *Gateway) SaveLine(ctx context.Context, line *entities.DemandLine) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.saveLine(line)
}

func (g *Gateway) SplitLine(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.splitLine(id, qty)
}

func (g *Gateway) MarkDone(ctx context.Context, id uuid.UUID, destLocationID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.markDone(id, destLocationID)
}

func (g *Gateway) Unreserve(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.unreserve(id)
}

func (g *Gateway) GetTransfer(ctx context.Context, id uuid.UUID) (*entities.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.getTransfer(id)
}

func (g *Gateway) SaveTransfer(ctx context.Context, transfer *entities.Transfer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.transfers[transfer.ID] = transfer
	return nil
}

// --- StockRepository ---

func (g *Gateway) OnHand(ctx context.Context, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.onHand(locationID, productID, lotID), nil
}

func (g *Gateway) SetOnHand(ctx context.Context, locationID, productID, lotID uuid.UUID, qty decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.setOnHand(locationID, productID, lotID, qty)
}

func (g *Gateway) Available(ctx context.Context, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.available(locationID, productID, lotID), nil
}

func (g *Gateway) Reserve(ctx context.Context, transferID, productID, lotID uuid.UUID, qty decimal.Decimal, preferredLocationID uuid.UUID) ([]*entities.DemandLine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.reserve(transferID, productID, lotID, qty, preferredLocationID)
}

// --- CorrectiveRepository ---

func (g *Gateway) CreateCorrectiveRecord(ctx context.Context, rec *entities.CorrectiveRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.corrections = append(g.store.corrections, rec)
	return nil
}

func (g *Gateway) CorrectiveRecords(ctx context.Context) ([]*entities.CorrectiveRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*entities.CorrectiveRecord(nil), g.store.corrections...), nil
}

// --- fixture helpers ---

// AddLocation registers a location
func (g *Gateway) AddLocation(l *entities.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.locations[l.ID] = l
}

// AddPackage registers a package
func (g *Gateway) AddPackage(p *entities.Package) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.packages[p.ID] = p
}

// AddProduct registers a product
func (g *Gateway) AddProduct(p *entities.Product) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.products[p.ID] = p
}

// AddLot registers a lot
func (g *Gateway) AddLot(l *entities.Lot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.lots[l.ID] = l
}

// AddTransfer registers a transfer
func (g *Gateway) AddTransfer(t *entities.Transfer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.transfers[t.ID] = t
}

// AddLine registers a demand line without validation side effects
func (g *Gateway) AddLine(l *entities.DemandLine) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.lines[l.ID] = l
	g.store.refreshTransfer(l.TransferID)
}

// AddStock books a stock quant
func (g *Gateway) AddStock(q Quant) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cq := q
	g.store.quants = append(g.store.quants, &cq)
}

// txGateway is the view handed to transaction functions. The outer
// gateway already holds the lock, so methods go straight to the store;
// a nested InTransaction joins the outer transaction.
type txGateway struct {
	store *store
}

func (t *txGateway) InTransaction(ctx context.Context, fn func(repositories.Gateway) error) error {
	return fn(t)
}

func (t *txGateway) FindLocation(ctx context.Context, barcode string) (*entities.Location, error) {
	return t.store.findLocation(barcode), nil
}

func (t *txGateway) FindPackage(ctx context.Context, name string) (*entities.Package, error) {
	return t.store.findPackage(name), nil
}

func (t *txGateway) FindProduct(ctx context.Context, barcode string) (*entities.Product, error) {
	return t.store.findProduct(barcode), nil
}

func (t *txGateway) FindPackaging(ctx context.Context, barcode string) (*entities.Product, *entities.Packaging, error) {
	p, pk := t.store.findPackaging(barcode)
	return p, pk, nil
}

func (t *txGateway) FindLots(ctx context.Context, name string) ([]*entities.Lot, error) {
	return t.store.findLots(name), nil
}

func (t *txGateway) GetLocation(ctx context.Context, id uuid.UUID) (*entities.Location, error) {
	return t.store.getLocation(id)
}

func (t *txGateway) GetPackage(ctx context.Context, id uuid.UUID) (*entities.Package, error) {
	return t.store.getPackage(id)
}

func (t *txGateway) GetProduct(ctx context.Context, id uuid.UUID) (*entities.Product, error) {
	return t.store.getProduct(id)
}

func (t *txGateway) GetLot(ctx context.Context, id uuid.UUID) (*entities.Lot, error) {
	return t.store.getLot(id)
}

func (t *txGateway) DemandLinesIn(ctx context.Context, locationID uuid.UUID, f repositories.LineFilters) ([]*entities.DemandLine, error) {
	return t.store.demandLinesIn(locationID, f)
}

func (t *txGateway) LinesByOperator(ctx context.Context, operator string) ([]*entities.DemandLine, error) {
	return t.store.linesByOperator(operator), nil
}

func (t *txGateway) LinesForStock(ctx context.Context, locationID, productID, lotID uuid.UUID) ([]*entities.DemandLine, error) {
	return t.store.linesForStock(locationID, productID, lotID), nil
}

func (t *txGateway) LinesForTransfer(ctx context.Context, transferID uuid.UUID) ([]*entities.DemandLine, error) {
	return t.store.linesForTransfer(transferID), nil
}

func (t *txGateway) LinesForDestPackage(ctx context.Context, packageID uuid.UUID) ([]*entities.DemandLine, error) {
	return t.store.linesForDestPackage(packageID), nil
}

func (t *txGateway) FindTransferByName(ctx context.Context, name string) (*entities.Transfer, error) {
	return t.store.findTransferByName(name), nil
}

func (t *txGateway) GetLine(ctx context.Context, id uuid.UUID) (*entities.DemandLine, error) {
	return t.store.getLine(id)
}

func (t *txGateway) SaveLine(ctx context.Context, line *entities.DemandLine) error {
	return t.store.saveLine(line)
}

func (t *txGateway) SplitLine(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*entities.DemandLine, error) {
	return t.store.splitLine(id, qty)
}

func (t *txGateway) MarkDone(ctx context.Context, id uuid.UUID, destLocationID uuid.UUID) error {
	return t.store.markDone(id, destLocationID)
}

func (t *txGateway) Unreserve(ctx context.Context, id uuid.UUID) error {
	return t.store.unreserve(id)
}

func (t *txGateway) GetTransfer(ctx context.Context, id uuid.UUID) (*entities.Transfer, error) {
	return t.store.getTransfer(id)
}

func (t *txGateway) SaveTransfer(ctx context.Context, transfer *entities.Transfer) error {
	t.store.transfers[transfer.ID] = transfer
	return nil
}

func (t *txGateway) OnHand(ctx context.Context, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error) {
	return t.store.onHand(locationID, productID, lotID), nil
}

func (t *txGateway) SetOnHand(ctx context.Context, locationID, productID, lotID uuid.UUID, qty decimal.Decimal) error {
	return t.store.setOnHand(locationID, productID, lotID, qty)
}

func (t *txGateway) Available(ctx context.Context, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error) {
	return t.store.available(locationID, productID, lotID), nil
}

func (t *txGateway) Reserve(ctx context.Context, transferID, productID, lotID uuid.UUID, qty decimal.Decimal, preferredLocationID uuid.UUID) ([]*entities.DemandLine, error) {
	return t.store.reserve(transferID, productID, lotID, qty, preferredLocationID)
}

func (t *txGateway) CreateCorrectiveRecord(ctx context.Context, rec *entities.CorrectiveRecord) error {
	t.store.corrections = append(t.store.corrections, rec)
	return nil
}

func (t *txGateway) CorrectiveRecords(ctx context.Context) ([]*entities.CorrectiveRecord, error) {
	return append([]*entities.CorrectiveRecord(nil), t.store.corrections...), nil
}
