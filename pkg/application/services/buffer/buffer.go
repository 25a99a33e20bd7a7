package buffer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
	"github.com/vsinha/scanflow/pkg/infrastructure/events"
)

// Scope bounds which buffered lines an operation sees. SystemWide
// scopes ignore the location and return all of an operator's buffered
// work, so packages can be unloaded away from the pick area.
type Scope struct {
	LocationID uuid.UUID
	SystemWide bool
}

// Entry is one buffered line together with the package it was picked
// into
type Entry struct {
	Line    *entities.DemandLine
	Package *entities.Package
}

// Result reports a completed unload
type Result struct {
	Done []*entities.DemandLine
	// RemainingWork is true when the unloaded lines' transfers still
	// have open lines.
	RemainingWork bool
}

// Manager tracks lines provisionally completed into destination
// packages and consolidates them to final destinations.
type Manager struct {
	log    *zap.Logger
	events *events.Store
}

// NewManager creates a new buffer manager
func NewManager(log *zap.Logger, store *events.Store) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = events.NewStore()
	}
	return &Manager{log: log, events: store}
}

// BufferedLines returns the operator's buffered lines in scope. Lines
// assigned to a different operator are never included.
func (m *Manager) BufferedLines(ctx context.Context, gw repositories.Gateway, operator string, scope Scope) ([]Entry, error) {
	lines, err := m.scopedLines(ctx, gw, operator, scope)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, l := range lines {
		pkg, err := gw.GetPackage(ctx, l.DestPackageID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Line: l, Package: pkg})
	}
	return entries, nil
}

func (m *Manager) scopedLines(ctx context.Context, gw repositories.Gateway, operator string, scope Scope) ([]*entities.DemandLine, error) {
	var lines []*entities.DemandLine
	var err error
	if scope.SystemWide {
		lines, err = gw.LinesByOperator(ctx, operator)
	} else {
		lines, err = gw.DemandLinesIn(ctx, scope.LocationID, repositories.LineFilters{Operator: operator})
	}
	if err != nil {
		return nil, err
	}

	var buffered []*entities.DemandLine
	for _, l := range lines {
		if l.Buffered() && l.AssignedOperator == operator {
			buffered = append(buffered, l)
		}
	}
	return buffered, nil
}

// SetDestinationPackage assigns the buffer package a line is being
// picked into
func (m *Manager) SetDestinationPackage(ctx context.Context, gw repositories.Gateway, lineID, packageID uuid.UUID, operator string) error {
	return gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		line, err := tx.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if !line.State.Active() {
			return fmt.Errorf("demand line %s: %w", lineID, entities.ErrAlreadyDone)
		}
		if line.AssignedOperator != "" && line.AssignedOperator != operator {
			return &entities.ForbiddenError{Reason: "line is being worked by another operator"}
		}
		if _, err := tx.GetPackage(ctx, packageID); err != nil {
			return err
		}
		inUse, err := tx.LinesForDestPackage(ctx, packageID)
		if err != nil {
			return err
		}
		for _, l := range inUse {
			if l.Buffered() && l.AssignedOperator != operator {
				return &entities.ForbiddenError{Reason: "destination package is in use by another operator"}
			}
		}

		line.DestPackageID = packageID
		line.AssignedOperator = operator
		return tx.SaveLine(ctx, line)
	})
}

// Abandon releases the operator's in-progress work: buffered picks are
// rolled back to open reserved lines and soft locks are cleared. The
// operator is expected to return buffered items to their source. No
// stock moves; the reservations simply reopen.
func (m *Manager) Abandon(ctx context.Context, gw repositories.Gateway, operator string) (int, error) {
	released := 0
	err := gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		lines, err := tx.LinesByOperator(ctx, operator)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if !l.State.Active() {
				continue
			}
			l.DoneQty = decimal.Zero
			l.DestPackageID = uuid.Nil
			l.AssignedOperator = ""
			if err := tx.SaveLine(ctx, l); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.log.Info("work abandoned",
		zap.String("operator", operator),
		zap.Int("lines", released),
	)
	return released, nil
}

// UnloadAll consolidates every buffered line in scope to one
// destination. All lines must already share a planned destination;
// differing destinations force the caller to unload per package.
func (m *Manager) UnloadAll(ctx context.Context, gw repositories.Gateway, operator string, scope Scope, destinationID, allowedRootID uuid.UUID, confirmed bool) (*Result, error) {
	var result *Result
	err := gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		lines, err := m.scopedLines(ctx, tx, operator, scope)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("nothing buffered to unload: %w", entities.ErrNotFound)
		}

		expected := lines[0].DestLocationID
		for _, l := range lines[1:] {
			if l.DestLocationID != expected {
				return &entities.ForbiddenError{Reason: "buffered lines have different destinations"}
			}
		}

		if err := m.CheckDestination(ctx, tx, destinationID, allowedRootID, expected, confirmed); err != nil {
			return err
		}

		result, err = m.unload(ctx, tx, lines, destinationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnloadOne consolidates the buffered lines of a single package
func (m *Manager) UnloadOne(ctx context.Context, gw repositories.Gateway, operator string, packageID, destinationID, allowedRootID uuid.UUID, confirmed bool) (*Result, error) {
	var result *Result
	err := gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		all, err := tx.LinesByOperator(ctx, operator)
		if err != nil {
			return err
		}
		var lines []*entities.DemandLine
		for _, l := range all {
			if l.Buffered() && l.DestPackageID == packageID {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			return fmt.Errorf("package has nothing buffered: %w", entities.ErrNotFound)
		}

		if err := m.CheckDestination(ctx, tx, destinationID, allowedRootID, lines[0].DestLocationID, confirmed); err != nil {
			return err
		}

		result, err = m.unload(ctx, tx, lines, destinationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CheckDestination enforces the shared confirmation protocol: the
// destination must sit under the allowed root, and a destination
// deviating from the expected one needs an explicit confirmed
// re-submission before anything mutates.
func (m *Manager) CheckDestination(ctx context.Context, tx repositories.Gateway, destinationID, allowedRootID, expectedID uuid.UUID, confirmed bool) error {
	dest, err := tx.GetLocation(ctx, destinationID)
	if err != nil {
		return err
	}
	if allowedRootID != uuid.Nil {
		root, err := tx.GetLocation(ctx, allowedRootID)
		if err != nil {
			return err
		}
		if !dest.IsSublocationOf(root) {
			return &entities.ForbiddenError{Reason: fmt.Sprintf("location %s is outside the allowed destination area", dest.Name)}
		}
	}
	if expectedID != uuid.Nil && destinationID != expectedID && !confirmed {
		return &entities.ConfirmationError{
			ProposedLocationID: destinationID,
			Body:               fmt.Sprintf("destination %s differs from the planned one, scan again to confirm", dest.Name),
		}
	}
	return nil
}

func (m *Manager) unload(ctx context.Context, tx repositories.Gateway, lines []*entities.DemandLine, destinationID uuid.UUID) (*Result, error) {
	result := &Result{}
	transfers := make(map[uuid.UUID]bool)
	for _, l := range lines {
		if err := tx.MarkDone(ctx, l.ID, destinationID); err != nil {
			return nil, err
		}
		transfers[l.TransferID] = true
		result.Done = append(result.Done, l)
		m.events.Emit(events.LineUnloadedEvent, l.AssignedOperator, events.LineUnloaded{
			LineID:         l.ID,
			DestLocationID: destinationID,
		})
	}

	for transferID := range transfers {
		rest, err := tx.LinesForTransfer(ctx, transferID)
		if err != nil {
			return nil, err
		}
		for _, l := range rest {
			if l.State.Active() {
				result.RemainingWork = true
			}
		}
	}

	m.log.Info("buffer unloaded",
		zap.Int("lines", len(result.Done)),
		zap.String("destination", destinationID.String()),
	)
	return result, nil
}
