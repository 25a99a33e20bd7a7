package testing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/infrastructure/repositories/memory"
)

// Scenario is a small two-bin warehouse with one picking transfer,
// shared by the engine test suites.
//
//	WH/Stock/Bin-01: 10 WIDGET (loose), 4 GADGET
//	WH/Stock/Bin-02: 5 SERUM lot LOT-A, 3 SERUM lot LOT-B, 7 WIDGET
//	WH/Output/Out-01: expected destination of all lines
//	WH/Output/Out-02: valid but deviating destination
type Scenario struct {
	Gateway *memory.Gateway

	Root    *entities.Location
	Stock   *entities.Location
	Bin1    *entities.Location
	Bin2    *entities.Location
	Packing *entities.Location
	Output  *entities.Location
	Out1    *entities.Location
	Out2    *entities.Location

	Widget *entities.Product
	Gadget *entities.Product
	Serum  *entities.Product
	LotA   *entities.Lot
	LotB   *entities.Lot

	Bin *entities.Package // empty destination package at Packing

	Transfer   *entities.Transfer
	WidgetLine *entities.DemandLine
	GadgetLine *entities.DemandLine
	SerumLineA *entities.DemandLine
	SerumLineB *entities.DemandLine
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// BuildWarehouseScenario assembles the shared warehouse fixture
func BuildWarehouseScenario() *Scenario {
	gw := memory.NewGateway(nil)
	s := &Scenario{Gateway: gw}

	s.Root = must(entities.NewLocation("WH", "LOC-WH", nil))
	s.Stock = must(entities.NewLocation("Stock", "LOC-STOCK", s.Root))
	s.Bin1 = must(entities.NewLocation("Bin-01", "LOC-BIN-01", s.Stock))
	s.Bin2 = must(entities.NewLocation("Bin-02", "LOC-BIN-02", s.Stock))
	s.Packing = must(entities.NewLocation("Packing", "LOC-PACKING", s.Root))
	s.Output = must(entities.NewLocation("Output", "LOC-OUTPUT", s.Root))
	s.Out1 = must(entities.NewLocation("Out-01", "LOC-OUT-01", s.Output))
	s.Out2 = must(entities.NewLocation("Out-02", "LOC-OUT-02", s.Output))
	for _, l := range []*entities.Location{s.Root, s.Stock, s.Bin1, s.Bin2, s.Packing, s.Output, s.Out1, s.Out2} {
		gw.AddLocation(l)
	}

	s.Widget = must(entities.NewProduct("Widget", "PRD-WIDGET", entities.TrackingNone))
	if err := s.Widget.AddPackaging("PKG-WIDGET-BOX", "Box of 6", decimal.NewFromInt(6)); err != nil {
		panic(err)
	}
	s.Gadget = must(entities.NewProduct("Gadget", "PRD-GADGET", entities.TrackingNone))
	s.Serum = must(entities.NewProduct("Serum", "PRD-SERUM", entities.TrackingLot))
	for _, p := range []*entities.Product{s.Widget, s.Gadget, s.Serum} {
		gw.AddProduct(p)
	}

	s.LotA = must(entities.NewLot(s.Serum.ID, "LOT-A"))
	s.LotB = must(entities.NewLot(s.Serum.ID, "LOT-B"))
	gw.AddLot(s.LotA)
	gw.AddLot(s.LotB)

	s.Bin = must(entities.NewPackage("BIN-0001", s.Packing.ID))
	gw.AddPackage(s.Bin)

	s.Transfer = must(entities.NewTransfer("PICK-001", s.Stock.ID, s.Out1.ID))
	gw.AddTransfer(s.Transfer)

	s.WidgetLine = s.reservedLine(s.Widget.ID, uuid.Nil, s.Bin1.ID, 10)
	s.GadgetLine = s.reservedLine(s.Gadget.ID, uuid.Nil, s.Bin1.ID, 4)
	s.SerumLineA = s.reservedLine(s.Serum.ID, s.LotA.ID, s.Bin2.ID, 5)
	s.SerumLineB = s.reservedLine(s.Serum.ID, s.LotB.ID, s.Bin2.ID, 3)

	gw.AddStock(memory.Quant{LocationID: s.Bin1.ID, ProductID: s.Widget.ID, Qty: decimal.NewFromInt(10)})
	gw.AddStock(memory.Quant{LocationID: s.Bin1.ID, ProductID: s.Gadget.ID, Qty: decimal.NewFromInt(4)})
	gw.AddStock(memory.Quant{LocationID: s.Bin2.ID, ProductID: s.Serum.ID, LotID: s.LotA.ID, Qty: decimal.NewFromInt(5)})
	gw.AddStock(memory.Quant{LocationID: s.Bin2.ID, ProductID: s.Serum.ID, LotID: s.LotB.ID, Qty: decimal.NewFromInt(3)})
	gw.AddStock(memory.Quant{LocationID: s.Bin2.ID, ProductID: s.Widget.ID, Qty: decimal.NewFromInt(7)})

	return s
}

func (s *Scenario) reservedLine(productID, lotID, sourceID uuid.UUID, qty int64) *entities.DemandLine {
	line := must(entities.NewDemandLine(
		s.Transfer.ID,
		productID,
		sourceID,
		s.Out1.ID,
		decimal.NewFromInt(qty),
	))
	line.LotID = lotID
	line.ReservedQty = decimal.NewFromInt(qty)
	line.State = entities.LineReserved
	s.Gateway.AddLine(line)
	return line
}
