package split

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/infrastructure/events"
	testhelpers "github.com/vsinha/scanflow/pkg/infrastructure/testing"
)

func TestApply_PartialPickSplitsRemainder(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	applied, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(6), s.Bin.ID, "alice")
	require.NoError(t, err)

	require.NotNil(t, applied.Remainder)
	assert.True(t, applied.Processed.DoneQty.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, s.Bin.ID, applied.Processed.DestPackageID)
	assert.Equal(t, "alice", applied.Processed.AssignedOperator)

	assert.True(t, applied.Remainder.ReservedQty.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, entities.LineReserved, applied.Remainder.State)
	assert.Equal(t, s.Bin1.ID, applied.Remainder.SourceLocationID,
		"remainder stays reserved at the original source")

	total := applied.Processed.RequestedQty.Add(applied.Remainder.RequestedQty)
	assert.True(t, total.Equal(decimal.NewFromInt(10)), "requested quantity is conserved")
}

func TestApply_FullPickLeavesNoRemainder(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	applied, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(10), s.Bin.ID, "alice")
	require.NoError(t, err)

	assert.Nil(t, applied.Remainder)
	assert.True(t, applied.Processed.DoneQty.Equal(decimal.NewFromInt(10)))
}

func TestApply_OverPickRejected(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	_, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(11), s.Bin.ID, "alice")
	require.ErrorIs(t, err, entities.ErrOverPick)

	// The rejected pick must not have touched the line.
	line, getErr := s.Gateway.GetLine(ctx, s.WidgetLine.ID)
	require.NoError(t, getErr)
	assert.True(t, line.DoneQty.IsZero())
}

func TestApply_ReapplyIsAlreadyDone(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	_, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(6), s.Bin.ID, "alice")
	require.NoError(t, err)

	_, err = sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(2), s.Bin.ID, "alice")
	require.ErrorIs(t, err, entities.ErrAlreadyDone)
}

func TestApply_RemainderSplitAgainSumsToOriginal(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	first, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(6), s.Bin.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, first.Remainder)

	second, err := sp.Apply(ctx, s.Gateway, first.Remainder.ID, decimal.NewFromInt(3), s.Bin.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, second.Remainder)

	total := first.Processed.RequestedQty.
		Add(second.Processed.RequestedQty).
		Add(second.Remainder.RequestedQty)
	assert.True(t, total.Equal(decimal.NewFromInt(10)),
		"all fragments sum to the original requested quantity, got %s", total)
}

func TestApply_GoneLineSurfacesRecordGone(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	require.NoError(t, s.Gateway.Unreserve(ctx, s.WidgetLine.ID))

	_, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(2), s.Bin.ID, "alice")
	require.ErrorIs(t, err, entities.ErrRecordGone)
}

func TestApply_PackageHeldByAnotherOperatorRejected(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	_, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(10), s.Bin.ID, "alice")
	require.NoError(t, err)

	_, err = sp.Apply(ctx, s.Gateway, s.GadgetLine.ID, decimal.NewFromInt(4), s.Bin.ID, "bob")
	require.ErrorIs(t, err, entities.ErrForbidden)

	line, getErr := s.Gateway.GetLine(ctx, s.GadgetLine.ID)
	require.NoError(t, getErr)
	assert.True(t, line.DoneQty.IsZero())
	assert.Equal(t, "", line.AssignedOperator)
}

func TestApply_SameOperatorMayReusePackage(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	sp := NewSplitter(nil, nil)
	ctx := context.Background()

	_, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(10), s.Bin.ID, "alice")
	require.NoError(t, err)

	applied, err := sp.Apply(ctx, s.Gateway, s.GadgetLine.ID, decimal.NewFromInt(4), s.Bin.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, s.Bin.ID, applied.Processed.DestPackageID)
}

func TestApply_EmitsPickAndSplitEvents(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	store := events.NewStore()
	sp := NewSplitter(nil, store)
	ctx := context.Background()

	applied, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(6), s.Bin.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, applied.Remainder)

	picked := store.ByType(events.LinePickedEvent)
	require.Len(t, picked, 1)
	data := picked[0].Data().(events.LinePicked)
	assert.True(t, data.Qty.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, "alice", data.Operator)

	splits := store.ByType(events.LineSplitEvent)
	require.Len(t, splits, 1)
	ev := splits[0].Data().(events.LineSplit)
	assert.Equal(t, applied.Remainder.ID, ev.RemainderID)
	assert.True(t, ev.Qty.Equal(decimal.NewFromInt(4)))
}
