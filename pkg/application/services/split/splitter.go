package split

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

// Applied is the result of applying a picked quantity to a line
type Applied struct {
	// Processed carries the picked quantity and destination package.
	Processed *entities.DemandLine
	// Remainder is the still-reserved rest, nil on a full-quantity
	// pick. It may have moved to a different source location when the
	// original stock could no longer cover it.
	Remainder *entities.DemandLine
}

// Splitter carves a picked portion out of a demand line while keeping
// reservation totals consistent
type Splitter struct {
	log    *zap.Logger
	events *events.Store
}

// NewSplitter creates a new reservation splitter
func NewSplitter(log *zap.Logger, store *events.Store) *Splitter {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = events.NewStore()
	}
	return &Splitter{log: log, events: store}
}

// Apply records qty as picked on the line, into destPackageID when set.
// Picking less than the reserved quantity splits off a remainder line
// on the same transfer. The whole operation runs in one gateway
// transaction.
func (s *Splitter) Apply(ctx context.Context, gw repositories.Gateway, lineID uuid.UUID, qty decimal.Decimal, destPackageID uuid.UUID, operator string) (*Applied, error) {
	var applied *Applied
	err := gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		var err error
		applied, err = s.apply(ctx, tx, lineID, qty, destPackageID, operator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// ApplyIn is Apply joined to an already open transaction, for callers
// that finalize the line in the same atomic step.
func (s *Splitter) ApplyIn(ctx context.Context, tx repositories.Gateway, lineID uuid.UUID, qty decimal.Decimal, destPackageID uuid.UUID, operator string) (*Applied, error) {
	return s.apply(ctx, tx, lineID, qty, destPackageID, operator)
}

func (s *Splitter) apply(ctx context.Context, tx repositories.Gateway, lineID uuid.UUID, qty decimal.Decimal, destPackageID uuid.UUID, operator string) (*Applied, error) {
	line, err := tx.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.State == entities.LineCancelled {
		// Another operator's cascade may have revoked the line.
		return nil, fmt.Errorf("demand line %s cancelled: %w", lineID, entities.ErrRecordGone)
	}
	if line.State == entities.LineDone || line.DoneQty.GreaterThan(decimal.Zero) {
		// Re-applying a processed line is an explicit error, never a
		// silent re-split.
		return nil, fmt.Errorf("demand line %s already processed: %w", lineID, entities.ErrAlreadyDone)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("picked quantity must be positive, got %s", qty)
	}
	if qty.GreaterThan(line.ReservedQty) {
		return nil, fmt.Errorf("picked %s of reserved %s: %w", qty, line.ReservedQty, entities.ErrOverPick)
	}
	if destPackageID != uuid.Nil {
		if err := checkPackageFree(ctx, tx, destPackageID, operator); err != nil {
			return nil, err
		}
	}

	var remainder *entities.DemandLine
	if qty.LessThan(line.ReservedQty) {
		remainder, err = tx.SplitLine(ctx, lineID, qty)
		if err != nil {
			return nil, err
		}
	}

	line.DoneQty = qty
	line.DestPackageID = destPackageID
	line.AssignedOperator = operator
	if err := tx.SaveLine(ctx, line); err != nil {
		return nil, err
	}

	if remainder != nil {
		remainder, err = s.ensureReservable(ctx, tx, remainder)
		if err != nil {
			return nil, err
		}
	}

	s.events.Emit(events.LinePickedEvent, operator, events.LinePicked{
		LineID:   line.ID,
		Qty:      qty,
		Operator: operator,
	})
	if remainder != nil {
		s.events.Emit(events.LineSplitEvent, operator, events.LineSplit{
			ProcessedID: line.ID,
			RemainderID: remainder.ID,
			Qty:         remainder.ReservedQty,
		})
	}
	s.log.Info("pick applied",
		zap.String("line", line.ID.String()),
		zap.String("qty", qty.String()),
		zap.String("operator", operator),
	)
	return &Applied{Processed: line, Remainder: remainder}, nil
}

// checkPackageFree rejects a destination package already holding
// another operator's buffered work. A buffer package belongs to one
// operator until it is unloaded.
func checkPackageFree(ctx context.Context, tx repositories.Gateway, packageID uuid.UUID, operator string) error {
	lines, err := tx.LinesForDestPackage(ctx, packageID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if l.Buffered() && l.AssignedOperator != operator {
			return &entities.ForbiddenError{Reason: "destination package is in use by another operator"}
		}
	}
	return nil
}

// ensureReservable re-reserves the remainder elsewhere when its source
// stock can no longer cover it
func (s *Splitter) ensureReservable(ctx context.Context, tx repositories.Gateway, remainder *entities.DemandLine) (*entities.DemandLine, error) {
	avail, err := tx.Available(ctx, remainder.SourceLocationID, remainder.ProductID, remainder.LotID)
	if err != nil {
		return nil, err
	}
	if !avail.IsNegative() {
		return remainder, nil
	}

	rest := remainder.ReservedQty
	if err := tx.Unreserve(ctx, remainder.ID); err != nil {
		return nil, err
	}
	lines, err := tx.Reserve(ctx, remainder.TransferID, remainder.ProductID, remainder.LotID, rest, remainder.SourceLocationID)
	if err != nil {
		if errors.Is(err, entities.ErrNoCapacity) {
			s.log.Warn("split remainder no longer reservable",
				zap.String("line", remainder.ID.String()),
				zap.String("qty", rest.String()),
			)
			return nil, nil
		}
		return nil, err
	}

	s.log.Info("split remainder relocated",
		zap.String("from", remainder.SourceLocationID.String()),
		zap.String("to", lines[0].SourceLocationID.String()),
	)
	return lines[0], nil
}
