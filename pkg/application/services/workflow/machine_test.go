package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	testhelpers "github.com/vsinha/scanflow/pkg/infrastructure/testing"
)

func newMachine(s *testhelpers.Scenario) *Machine {
	return NewMachine(s.Gateway, nil, nil, nil)
}

func TestHandle_UnknownProcess(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	_, err := m.Handle(context.Background(), ProcessID("bogus"), ActionStart, Request{Operator: "alice"})
	require.Error(t, err)
}

func TestHandle_StartLocationListsLines(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), Checkout, ActionStart, Request{
		Operator: "alice",
		Scanned:  "LOC-BIN-01",
	})
	require.NoError(t, err)

	assert.Equal(t, StateSelectLine, env.NextState)
	payload := env.Data[StateSelectLine].(SelectLinePayload)
	assert.Len(t, payload.Lines, 2)
}

func TestHandle_StartUnknownCodeKeepsStartState(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), Checkout, ActionStart, Request{
		Operator: "alice",
		Scanned:  "NO-SUCH-CODE",
	})
	require.NoError(t, err)

	assert.Equal(t, StateStart, env.NextState)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityError, env.Message.Type)
}

func TestHandle_StartByDocument(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), ClusterPicking, ActionStart, Request{
		Operator: "alice",
		Scanned:  "PICK-001",
	})
	require.NoError(t, err)

	assert.Equal(t, StateSelectLine, env.NextState)
	payload := env.Data[StateSelectLine].(SelectLinePayload)
	assert.Len(t, payload.Lines, 4)
}

func TestHandle_ScanLineNarrowsToDestination(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), Checkout, ActionScanLine, Request{
		Operator:          "alice",
		Scanned:           "PRD-GADGET",
		WorkingLocationID: s.Bin1.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSetDestination, env.NextState)
	payload := env.Data[StateSetDestination].(SetDestinationPayload)
	require.NotNil(t, payload.Line)
	assert.Equal(t, "Gadget", payload.Line.Product)
}

func TestHandle_ScanLineAmbiguityListsCandidates(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	// Bin-01 holds two products, so scanning it again cannot narrow.
	env, err := m.Handle(context.Background(), Checkout, ActionScanLine, Request{
		Operator:          "alice",
		Scanned:           "LOC-BIN-01",
		WorkingLocationID: s.Bin1.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSelectLine, env.NextState)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityWarning, env.Message.Type)
	assert.Contains(t, env.Message.Body, "product")
	payload := env.Data[StateSelectLine].(SelectLinePayload)
	assert.Len(t, payload.Lines, 2)
}

func TestHandle_ScanLineUnknownCode(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), Checkout, ActionScanLine, Request{
		Operator:          "alice",
		Scanned:           "NO-SUCH-CODE",
		WorkingLocationID: s.Bin1.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSelectLine, env.NextState)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityError, env.Message.Type)
}

func TestHandle_PickIntoPackageTriggersZeroCheck(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	env, err := m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.GadgetLine.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	// The full gadget stock of Bin-01 was just picked.
	assert.Equal(t, StateZeroCheck, env.NextState)
	payload := env.Data[StateZeroCheck].(ZeroCheckPayload)
	assert.Equal(t, "Bin-01", payload.Location)
	assert.Equal(t, "Gadget", payload.Product)

	line, err := s.Gateway.GetLine(ctx, s.GadgetLine.ID)
	require.NoError(t, err)
	assert.True(t, line.DoneQty.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, s.Bin.ID, line.DestPackageID)
}

func TestHandle_ZeroCheckConfirmedContinuesWork(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	_, err := m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.GadgetLine.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	env, err := m.Handle(ctx, Checkout, ActionZeroCheck, Request{
		Operator:          "alice",
		WorkingLocationID: s.Bin1.ID,
		LocationID:        s.Bin1.ID,
		ProductID:         s.Gadget.ID,
		Confirmed:         true,
	})
	require.NoError(t, err)

	// The widget line is the only open work left in Bin-01.
	assert.Equal(t, StateSetDestination, env.NextState)
	payload := env.Data[StateSetDestination].(SetDestinationPayload)
	require.NotNil(t, payload.Line)
	assert.Equal(t, "Widget", payload.Line.Product)

	recs, err := s.Gateway.CorrectiveRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestHandle_ZeroCheckDeniedRequestsAudit(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	env, err := m.Handle(ctx, Checkout, ActionZeroCheck, Request{
		Operator:          "alice",
		WorkingLocationID: s.Bin1.ID,
		LocationID:        s.Bin1.ID,
		ProductID:         s.Gadget.ID,
		Confirmed:         false,
	})
	require.NoError(t, err)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityInfo, env.Message.Type)

	recs, err := s.Gateway.CorrectiveRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestHandle_RequirePackageRejectsLocationDrop(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), ClusterPicking, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "LOC-OUT-01",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.WidgetLine.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSetDestination, env.NextState)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityError, env.Message.Type)
	assert.Contains(t, env.Message.Body, "package")
}

func TestHandle_DeviatingLocationDropNeedsConfirmation(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	env, err := m.Handle(ctx, LocationContentTransfer, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "LOC-OUT-02",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.WidgetLine.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSetDestination, env.NextState)
	payload := env.Data[StateSetDestination].(SetDestinationPayload)
	assert.True(t, payload.ConfirmationRequired)
	assert.Equal(t, "Out-02", payload.ProposedLocation)

	// Nothing moved yet.
	line, err := s.Gateway.GetLine(ctx, s.WidgetLine.ID)
	require.NoError(t, err)
	assert.True(t, line.DoneQty.IsZero())

	env, err = m.Handle(ctx, LocationContentTransfer, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "LOC-OUT-02",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.WidgetLine.ID,
		Confirmed:         true,
	})
	require.NoError(t, err)

	// Bin-01's widget stock is gone after the confirmed drop.
	assert.Equal(t, StateZeroCheck, env.NextState)
	onHand, err := s.Gateway.OnHand(ctx, s.Out2.ID, s.Widget.ID, s.WidgetLine.LotID)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(10)))
}

func TestHandle_StockIssueRoutesToReplacement(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)

	env, err := m.Handle(context.Background(), Checkout, ActionStockIssue, Request{
		Operator:          "alice",
		WorkingLocationID: s.Stock.ID,
		LineID:            s.WidgetLine.ID,
	})
	require.NoError(t, err)

	// Bin-02 still holds widgets, so a replacement pick is offered.
	assert.Equal(t, StateSetDestination, env.NextState)
	require.NotNil(t, env.Popup)
	assert.Contains(t, env.Popup.Body, "Bin-02")
	payload := env.Data[StateSetDestination].(SetDestinationPayload)
	require.NotNil(t, payload.Line)
	assert.Equal(t, "Bin-02", payload.Line.Source)
}

func TestHandle_UnloadAllEndsInSummary(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	_, err := m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.GadgetLine.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	_, err = m.Handle(ctx, Checkout, ActionZeroCheck, Request{
		Operator:          "alice",
		WorkingLocationID: s.Bin1.ID,
		LocationID:        s.Bin1.ID,
		ProductID:         s.Gadget.ID,
		Confirmed:         true,
	})
	require.NoError(t, err)

	_, err = m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.WidgetLine.ID,
		Quantity:          decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	env, err := m.Handle(ctx, Checkout, ActionZeroCheck, Request{
		Operator:          "alice",
		WorkingLocationID: s.Bin1.ID,
		LocationID:        s.Bin1.ID,
		ProductID:         s.Widget.ID,
		Confirmed:         true,
	})
	require.NoError(t, err)

	// Bin-01 is exhausted, so the machine moves to unloading.
	assert.Equal(t, StateUnloadAll, env.NextState)
	unload := env.Data[StateUnloadAll].(UnloadPayload)
	assert.Len(t, unload.Entries, 2)

	env, err = m.Handle(ctx, Checkout, ActionUnloadAll, Request{
		Operator:          "alice",
		Scanned:           "LOC-OUT-01",
		WorkingLocationID: s.Bin1.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateSummary, env.NextState)
	summary := env.Data[StateSummary].(SummaryPayload)
	assert.Equal(t, 2, summary.Completed)
}

func TestHandle_AbandonReleasesWork(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	_, err := m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.GadgetLine.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	env, err := m.Handle(ctx, Checkout, ActionAbandon, Request{Operator: "alice"})
	require.NoError(t, err)

	assert.Equal(t, StateStart, env.NextState)
	line, err := s.Gateway.GetLine(ctx, s.GadgetLine.ID)
	require.NoError(t, err)
	assert.True(t, line.DoneQty.IsZero())
	assert.Equal(t, "", line.AssignedOperator)
}

func TestHandle_FailedLocationDropRollsBackPick(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	// The shelf was emptied under alice; finalizing the move must fail.
	require.NoError(t, s.Gateway.SetOnHand(ctx, s.Bin1.ID, s.Widget.ID, uuid.Nil, decimal.Zero))

	env, err := m.Handle(ctx, LocationContentTransfer, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "LOC-OUT-01",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.WidgetLine.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, StateSelectLine, env.NextState)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityWarning, env.Message.Type)

	// The failed move left no partial state behind.
	line, err := s.Gateway.GetLine(ctx, s.WidgetLine.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LineReserved, line.State)
	assert.True(t, line.DoneQty.IsZero())
	assert.Equal(t, uuid.Nil, line.DestPackageID)
	assert.Equal(t, "", line.AssignedOperator)
}

func TestHandle_PackageHeldByAnotherOperatorRejected(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	m := newMachine(s)
	ctx := context.Background()

	_, err := m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "alice",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.WidgetLine.ID,
		Quantity:          decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	env, err := m.Handle(ctx, Checkout, ActionSetDestination, Request{
		Operator:          "bob",
		Scanned:           "BIN-0001",
		WorkingLocationID: s.Bin1.ID,
		LineID:            s.GadgetLine.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, StateSetDestination, env.NextState)
	require.NotNil(t, env.Message)
	assert.Equal(t, SeverityError, env.Message.Type)
	assert.Contains(t, env.Message.Body, "another operator")

	line, err := s.Gateway.GetLine(ctx, s.GadgetLine.ID)
	require.NoError(t, err)
	assert.True(t, line.DoneQty.IsZero())
	assert.Equal(t, uuid.Nil, line.DestPackageID)
}
