package correction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
	"github.com/vsinha/scanflow/pkg/infrastructure/events"
)

// Engine implements the corrective inventory protocols: zero-check
// confirmation and stock-issue declaration with its cross-operator
// cascade.
type Engine struct {
	log    *zap.Logger
	events *events.Store
}

// NewEngine creates a new corrective inventory engine
func NewEngine(log *zap.Logger, store *events.Store) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = events.NewStore()
	}
	return &Engine{log: log, events: store}
}

// ConfirmZero handles the zero-check prompt after a pick empties a
// location. Confirmed means system and shelf agree: nothing happens.
// Denied creates one draft corrective record for a later audit; the
// workflow continues either way.
func (e *Engine) ConfirmZero(ctx context.Context, gw repositories.Gateway, locationID, productID, lotID uuid.UUID, confirmed bool) (*entities.CorrectiveRecord, error) {
	if confirmed {
		e.events.Emit(events.ZeroCheckConfirmedEvent, locationID.String(), events.ZeroCheckResult{
			LocationID: locationID,
			ProductID:  productID,
			LotID:      lotID,
			Confirmed:  true,
		})
		return nil, nil
	}

	var rec *entities.CorrectiveRecord
	err := gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		var err error
		rec, err = entities.NewCorrectiveRecord(locationID, productID, lotID, decimal.Zero, entities.CorrectionDraft, "zero check denied")
		if err != nil {
			return err
		}
		return tx.CreateCorrectiveRecord(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	e.events.Emit(events.ZeroCheckDeniedEvent, locationID.String(), events.ZeroCheckResult{
		LocationID: locationID,
		ProductID:  productID,
		LotID:      lotID,
	})
	e.log.Info("zero check denied, audit record created",
		zap.String("location", locationID.String()),
		zap.String("product", productID.String()),
	)
	return rec, nil
}

// Declared is the result of a stock-issue declaration
type Declared struct {
	// Revoked lists other lines unreserved by the cascade, including
	// lines assigned to other operators.
	Revoked []*entities.DemandLine
	// ConfirmedRecord documents the applied ledger correction.
	ConfirmedRecord *entities.CorrectiveRecord
	// DraftRecord prompts a physical audit of the location.
	DraftRecord *entities.CorrectiveRecord
	// Replacement is a re-reserved line inside the working location,
	// nil when the outstanding demand could not be re-reserved there.
	Replacement *entities.DemandLine
}

// DeclareStockIssue records that the stock a line is reserved against
// is physically absent. The line and every other unpicked line on the
// same stock are unreserved, the ledger is corrected to what the
// surviving picks account for, and the outstanding demand is
// re-reserved where stock remains. Runs as one transaction: a failure
// partway leaves no unreserved demand without a correction record.
func (e *Engine) DeclareStockIssue(ctx context.Context, gw repositories.Gateway, lineID uuid.UUID, operator string, workingLocationID uuid.UUID) (*Declared, error) {
	var declared *Declared
	err := gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		var err error
		declared, err = e.declare(ctx, tx, lineID, operator, workingLocationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return declared, nil
}

func (e *Engine) declare(ctx context.Context, tx repositories.Gateway, lineID uuid.UUID, operator string, workingLocationID uuid.UUID) (*Declared, error) {
	line, err := tx.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if !line.State.Active() {
		return nil, fmt.Errorf("demand line %s no longer active: %w", lineID, entities.ErrRecordGone)
	}

	// A partially picked line keeps its picked portion; the issue
	// applies only to the unpicked rest.
	target := line
	if line.DoneQty.GreaterThan(decimal.Zero) {
		if line.DoneQty.Equal(line.ReservedQty) {
			return nil, fmt.Errorf("demand line %s fully picked: %w", lineID, entities.ErrAlreadyDone)
		}
		target, err = tx.SplitLine(ctx, line.ID, line.DoneQty)
		if err != nil {
			return nil, err
		}
	}

	locationID := target.SourceLocationID
	productID := target.ProductID
	lotID := target.LotID
	outstanding := target.ReservedQty

	if err := tx.Unreserve(ctx, target.ID); err != nil {
		return nil, err
	}

	revoked, err := e.Cascade(ctx, tx, locationID, productID, lotID, target.ID)
	if err != nil {
		return nil, err
	}

	corrected, err := e.correctLedger(ctx, tx, locationID, productID, lotID)
	if err != nil {
		return nil, err
	}

	confirmedRec, err := entities.NewCorrectiveRecord(locationID, productID, lotID, corrected, entities.CorrectionConfirmed, "stock issue correction")
	if err != nil {
		return nil, err
	}
	if err := tx.CreateCorrectiveRecord(ctx, confirmedRec); err != nil {
		return nil, err
	}
	draftRec, err := entities.NewCorrectiveRecord(locationID, productID, lotID, corrected, entities.CorrectionDraft, "stock issue audit")
	if err != nil {
		return nil, err
	}
	if err := tx.CreateCorrectiveRecord(ctx, draftRec); err != nil {
		return nil, err
	}

	replacement, err := e.rereserve(ctx, tx, target, outstanding, operator, workingLocationID)
	if err != nil {
		return nil, err
	}

	e.events.Emit(events.StockIssueDeclaredEvent, operator, events.StockIssueDeclared{
		LineID:       lineID,
		LocationID:   locationID,
		ProductID:    productID,
		LotID:        lotID,
		CorrectedQty: corrected,
	})
	e.log.Info("stock issue declared",
		zap.String("line", lineID.String()),
		zap.String("location", locationID.String()),
		zap.Int("revoked", len(revoked)),
		zap.String("corrected_qty", corrected.String()),
	)

	return &Declared{
		Revoked:         revoked,
		ConfirmedRecord: confirmedRec,
		DraftRecord:     draftRec,
		Replacement:     replacement,
	}, nil
}

// Cascade unreserves every unpicked line drawing on the given stock,
// deliberately including lines soft-locked by other operators: work
// reserved against physically absent stock must be revoked. Lines with
// picked quantity are never touched.
func (e *Engine) Cascade(ctx context.Context, tx repositories.Gateway, locationID, productID, lotID, excludeID uuid.UUID) ([]*entities.DemandLine, error) {
	lines, err := tx.LinesForStock(ctx, locationID, productID, lotID)
	if err != nil {
		return nil, err
	}

	var revoked []*entities.DemandLine
	for _, l := range lines {
		if l.ID == excludeID || l.DoneQty.GreaterThan(decimal.Zero) {
			continue
		}
		if err := tx.Unreserve(ctx, l.ID); err != nil {
			return nil, err
		}
		revoked = append(revoked, l)
		e.events.Emit(events.ReservationRevokedEvent, l.AssignedOperator, events.ReservationRevoked{
			LineID:   l.ID,
			Operator: l.AssignedOperator,
		})
	}
	return revoked, nil
}

// correctLedger sets on-hand to the sum of picked quantities of the
// surviving lines and returns that quantity
func (e *Engine) correctLedger(ctx context.Context, tx repositories.Gateway, locationID, productID, lotID uuid.UUID) (decimal.Decimal, error) {
	survivors, err := tx.LinesForStock(ctx, locationID, productID, lotID)
	if err != nil {
		return decimal.Zero, err
	}
	corrected := decimal.Zero
	for _, l := range survivors {
		corrected = corrected.Add(l.DoneQty)
	}
	if err := tx.SetOnHand(ctx, locationID, productID, lotID, corrected); err != nil {
		return decimal.Zero, err
	}
	return corrected, nil
}

// rereserve attempts to re-reserve the outstanding quantity. The
// replacement is handed back only when it lands inside the working
// location; reservations elsewhere stay unassigned for later pickup.
func (e *Engine) rereserve(ctx context.Context, tx repositories.Gateway, target *entities.DemandLine, outstanding decimal.Decimal, operator string, workingLocationID uuid.UUID) (*entities.DemandLine, error) {
	if outstanding.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	lines, err := tx.Reserve(ctx, target.TransferID, target.ProductID, target.LotID, outstanding, workingLocationID)
	if err != nil {
		if errors.Is(err, entities.ErrNoCapacity) {
			return nil, nil
		}
		return nil, err
	}
	if workingLocationID == uuid.Nil {
		return nil, nil
	}

	working, err := tx.GetLocation(ctx, workingLocationID)
	if err != nil {
		return nil, err
	}
	first := lines[0]
	src, err := tx.GetLocation(ctx, first.SourceLocationID)
	if err != nil {
		return nil, err
	}
	if !src.IsSublocationOf(working) {
		return nil, nil
	}

	first.AssignedOperator = operator
	if err := tx.SaveLine(ctx, first); err != nil {
		return nil, err
	}
	return first, nil
}
