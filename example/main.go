package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/application/services/workflow"
	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/scanflow/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()

	gw := memory.NewGateway(nil)
	setupWarehouse(gw)

	machine := workflow.NewMachine(gw, nil, nil, nil)

	fmt.Println("📦 Running a checkout session for operator alice...")
	fmt.Println()

	bin := mustFind(gw.FindLocation(ctx, "LOC-BIN-01"))

	// Scan the bin to open its work.
	step(ctx, machine, workflow.ActionStart, workflow.Request{
		Operator: "alice",
		Scanned:  "LOC-BIN-01",
	})

	// Scan the product to select its line.
	env := step(ctx, machine, workflow.ActionScanLine, workflow.Request{
		Operator:          "alice",
		Scanned:           "PRD-WIDGET",
		WorkingLocationID: bin.ID,
	})
	selected := env.Data[workflow.StateSetDestination].(workflow.SetDestinationPayload)
	lineID, err := uuid.Parse(selected.Line.ID)
	if err != nil {
		panic(err)
	}

	// Pick the full quantity into a buffer package.
	env = step(ctx, machine, workflow.ActionSetDestination, workflow.Request{
		Operator:          "alice",
		Scanned:           "ROLLCAGE-1",
		WorkingLocationID: bin.ID,
		LineID:            lineID,
		Quantity:          decimal.NewFromInt(8),
	})

	// The bin is now empty; answer the zero check.
	zero := env.Data[workflow.StateZeroCheck].(workflow.ZeroCheckPayload)
	step(ctx, machine, workflow.ActionZeroCheck, workflow.Request{
		Operator:          "alice",
		WorkingLocationID: bin.ID,
		LocationID:        uuid.MustParse(zero.LocationID),
		ProductID:         uuid.MustParse(zero.ProductID),
		Confirmed:         true,
	})

	// Drop the rollcage at the planned output.
	step(ctx, machine, workflow.ActionUnloadAll, workflow.Request{
		Operator:          "alice",
		Scanned:           "LOC-OUT-01",
		WorkingLocationID: bin.ID,
	})
}

func step(ctx context.Context, m *workflow.Machine, action workflow.Action, req workflow.Request) *workflow.Envelope {
	env, err := m.Handle(ctx, workflow.Checkout, action, req)
	if err != nil {
		panic(err)
	}
	if err := output.Render(os.Stdout, env, "text"); err != nil {
		panic(err)
	}
	fmt.Println()
	return env
}

func setupWarehouse(gw *memory.Gateway) {
	root := mustNew(entities.NewLocation("WH", "LOC-WH", nil))
	stock := mustNew(entities.NewLocation("Stock", "LOC-STOCK", root))
	bin := mustNew(entities.NewLocation("Bin-01", "LOC-BIN-01", stock))
	out := mustNew(entities.NewLocation("Out-01", "LOC-OUT-01", root))
	for _, l := range []*entities.Location{root, stock, bin, out} {
		gw.AddLocation(l)
	}

	widget := mustNew(entities.NewProduct("Widget", "PRD-WIDGET", entities.TrackingNone))
	gw.AddProduct(widget)

	rollcage := mustNew(entities.NewPackage("ROLLCAGE-1", stock.ID))
	gw.AddPackage(rollcage)

	transfer := mustNew(entities.NewTransfer("PICK-001", stock.ID, out.ID))
	gw.AddTransfer(transfer)

	line := mustNew(entities.NewDemandLine(transfer.ID, widget.ID, bin.ID, out.ID, decimal.NewFromInt(8)))
	line.ReservedQty = decimal.NewFromInt(8)
	line.State = entities.LineReserved
	gw.AddLine(line)

	gw.AddStock(memory.Quant{LocationID: bin.ID, ProductID: widget.ID, Qty: decimal.NewFromInt(8)})
}

func mustNew[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustFind[T any](v *T, err error) *T {
	if err != nil || v == nil {
		panic(fmt.Sprintf("lookup failed: %v", err))
	}
	return v
}
