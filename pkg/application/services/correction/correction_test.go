package correction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/scanflow/pkg/application/services/split"
	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/infrastructure/events"
	testhelpers "github.com/vsinha/scanflow/pkg/infrastructure/testing"
)

func TestConfirmZero_ConfirmedCreatesNothing(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	e := NewEngine(nil, nil)
	ctx := context.Background()

	rec, err := e.ConfirmZero(ctx, s.Gateway, s.Bin1.ID, s.Widget.ID, uuid.Nil, true)
	require.NoError(t, err)
	assert.Nil(t, rec)

	recs, _ := s.Gateway.CorrectiveRecords(ctx)
	assert.Empty(t, recs)
}

func TestConfirmZero_DeniedCreatesDraftRecord(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	store := events.NewStore()
	e := NewEngine(nil, store)
	ctx := context.Background()

	rec, err := e.ConfirmZero(ctx, s.Gateway, s.Bin2.ID, s.Serum.ID, s.LotA.ID, false)
	require.NoError(t, err)
	require.NotNil(t, rec)

	recs, _ := s.Gateway.CorrectiveRecords(ctx)
	require.Len(t, recs, 1)
	assert.Equal(t, entities.CorrectionDraft, recs[0].State)
	assert.True(t, recs[0].Quantity.IsZero())
	assert.Equal(t, s.Bin2.ID, recs[0].LocationID)
	assert.Equal(t, s.Serum.ID, recs[0].ProductID)
	assert.Equal(t, s.LotA.ID, recs[0].LotID)

	assert.Len(t, store.ByType(events.ZeroCheckDeniedEvent), 1)
}

func TestDeclareStockIssue_OnlyReservationNoRereserve(t *testing.T) {
	// Stock issue on the only reservation for (product, location) with
	// no stock anywhere else: the line goes away, one confirmed and one
	// draft record appear, and there is no replacement.
	s := testhelpers.BuildWarehouseScenario()
	e := NewEngine(nil, nil)
	ctx := context.Background()

	declared, err := e.DeclareStockIssue(ctx, s.Gateway, s.GadgetLine.ID, "alice", s.Stock.ID)
	require.NoError(t, err)

	assert.Empty(t, declared.Revoked)
	assert.Nil(t, declared.Replacement)

	require.NotNil(t, declared.ConfirmedRecord)
	assert.Equal(t, entities.CorrectionConfirmed, declared.ConfirmedRecord.State)
	assert.True(t, declared.ConfirmedRecord.Quantity.IsZero())
	require.NotNil(t, declared.DraftRecord)
	assert.Equal(t, entities.CorrectionDraft, declared.DraftRecord.State)

	line, err := s.Gateway.GetLine(ctx, s.GadgetLine.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LineCancelled, line.State)

	onHand, _ := s.Gateway.OnHand(ctx, s.Bin1.ID, s.Gadget.ID, uuid.Nil)
	assert.True(t, onHand.IsZero(), "ledger corrected to zero, got %s", onHand)
}

func TestDeclareStockIssue_CascadeRevokesOtherOperators(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	store := events.NewStore()
	e := NewEngine(nil, store)
	ctx := context.Background()

	// Bob holds an unpicked reservation on the same widget stock, and
	// carol has already picked some of hers into a package.
	other, _ := entities.NewTransfer("PICK-002", s.Stock.ID, s.Out2.ID)
	s.Gateway.AddTransfer(other)

	bobLine, _ := entities.NewDemandLine(other.ID, s.Widget.ID, s.Bin1.ID, s.Out2.ID, decimal.NewFromInt(3))
	bobLine.ReservedQty = decimal.NewFromInt(3)
	bobLine.State = entities.LineReserved
	bobLine.AssignedOperator = "bob"
	s.Gateway.AddLine(bobLine)

	carolLine, _ := entities.NewDemandLine(other.ID, s.Widget.ID, s.Bin1.ID, s.Out2.ID, decimal.NewFromInt(2))
	carolLine.ReservedQty = decimal.NewFromInt(2)
	carolLine.DoneQty = decimal.NewFromInt(2)
	carolLine.DestPackageID = s.Bin.ID
	carolLine.State = entities.LineReserved
	carolLine.AssignedOperator = "carol"
	s.Gateway.AddLine(carolLine)

	declared, err := e.DeclareStockIssue(ctx, s.Gateway, s.WidgetLine.ID, "alice", uuid.Nil)
	require.NoError(t, err)

	require.Len(t, declared.Revoked, 1, "only bob's unpicked line is revoked")
	assert.Equal(t, bobLine.ID, declared.Revoked[0].ID)

	got, _ := s.Gateway.GetLine(ctx, carolLine.ID)
	assert.Equal(t, entities.LineReserved, got.State, "picked lines are never touched by the cascade")

	// Ledger equality: on-hand equals the surviving picked quantity.
	onHand, _ := s.Gateway.OnHand(ctx, s.Bin1.ID, s.Widget.ID, uuid.Nil)
	assert.True(t, onHand.Equal(decimal.NewFromInt(2)), "on-hand %s != surviving qty_done 2", onHand)

	revokedEvents := store.ByType(events.ReservationRevokedEvent)
	require.Len(t, revokedEvents, 1)
}

func TestDeclareStockIssue_PartialPickKeepsPickedPortion(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	e := NewEngine(nil, nil)
	sp := split.NewSplitter(nil, nil)
	ctx := context.Background()

	applied, err := sp.Apply(ctx, s.Gateway, s.WidgetLine.ID, decimal.NewFromInt(6), s.Bin.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, applied.Remainder)

	declared, err := e.DeclareStockIssue(ctx, s.Gateway, applied.Remainder.ID, "alice", s.Stock.ID)
	require.NoError(t, err)

	// The picked 6 survive and back the corrected ledger.
	onHand, _ := s.Gateway.OnHand(ctx, s.Bin1.ID, s.Widget.ID, uuid.Nil)
	assert.True(t, onHand.Equal(decimal.NewFromInt(6)), "on-hand %s != picked 6", onHand)

	// 7 widgets sit in Bin-02 inside the working zone, so the
	// outstanding 4 re-reserve there and come back as a replacement.
	require.NotNil(t, declared.Replacement)
	assert.Equal(t, s.Bin2.ID, declared.Replacement.SourceLocationID)
	assert.True(t, declared.Replacement.ReservedQty.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "alice", declared.Replacement.AssignedOperator)
}

func TestDeclareStockIssue_RecordCounts(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	e := NewEngine(nil, nil)
	ctx := context.Background()

	_, err := e.DeclareStockIssue(ctx, s.Gateway, s.SerumLineA.ID, "alice", s.Stock.ID)
	require.NoError(t, err)

	recs, _ := s.Gateway.CorrectiveRecords(ctx)
	confirmed, draft := 0, 0
	for _, r := range recs {
		switch r.State {
		case entities.CorrectionConfirmed:
			confirmed++
		case entities.CorrectionDraft:
			draft++
		}
	}
	assert.Equal(t, 1, confirmed, "exactly one confirmed record")
	assert.Equal(t, 1, draft, "exactly one draft record")
}

func TestDeclareStockIssue_GoneLine(t *testing.T) {
	s := testhelpers.BuildWarehouseScenario()
	e := NewEngine(nil, nil)
	ctx := context.Background()

	require.NoError(t, s.Gateway.Unreserve(ctx, s.GadgetLine.ID))

	_, err := e.DeclareStockIssue(ctx, s.Gateway, s.GadgetLine.ID, "alice", s.Stock.ID)
	require.ErrorIs(t, err, entities.ErrRecordGone)
}
