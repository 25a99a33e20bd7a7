package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/scanflow/pkg/application/services/buffer"
	"github.com/vsinha/scanflow/pkg/application/services/correction"
	"github.com/vsinha/scanflow/pkg/application/services/resolve"
	"github.com/vsinha/scanflow/pkg/application/services/split"
	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
	"github.com/vsinha/scanflow/pkg/infrastructure/events"
)

// Action names one client interaction with the state machine
type Action string

const (
	ActionStart          Action = "start"
	ActionScanLine       Action = "scan_line"
	ActionSetDestination Action = "set_destination"
	ActionStockIssue     Action = "stock_issue"
	ActionZeroCheck      Action = "zero_check"
	ActionUnloadAll      Action = "unload_all"
	ActionUnloadSingle   Action = "unload_single"
	ActionAbandon        Action = "abandon"
)

// Request carries one client interaction. The engine holds no session
// state; the client echoes back the identifiers of the work it is on.
type Request struct {
	Operator string
	// Scanned is the raw barcode of this interaction.
	Scanned string

	// WorkingLocationID is the area the operator started from, when
	// the process started from a location scan.
	WorkingLocationID uuid.UUID
	// TransferID is the scanned document, when the process started
	// from one.
	TransferID uuid.UUID
	// LineID is the selected demand line.
	LineID uuid.UUID
	// PackageID selects a buffered package for a single unload.
	PackageID uuid.UUID

	// LocationID, ProductID and LotID identify the stock of a pending
	// zero check.
	LocationID uuid.UUID
	ProductID  uuid.UUID
	LotID      uuid.UUID

	// Quantity is the counted quantity to process; zero means the
	// line's full reserved quantity.
	Quantity decimal.Decimal
	// Confirmed re-submits a previously rejected destination.
	Confirmed bool
}

// Machine drives every scan process through the shared screen cycle:
// start, select_line, set_destination, then unload or summary, with
// zero_check interleaved when a pick empties a shelf. Which branches
// are live is decided per process by its Options.
type Machine struct {
	gw        repositories.Gateway
	resolver  *resolve.Resolver
	splitter  *split.Splitter
	corrector *correction.Engine
	buffers   *buffer.Manager
	procs     map[ProcessID]*Process
	log       *zap.Logger
}

// NewMachine creates a workflow machine over the gateway. A nil procs
// map selects the built-in process set.
func NewMachine(gw repositories.Gateway, procs map[ProcessID]*Process, store *events.Store, log *zap.Logger) *Machine {
	if procs == nil {
		procs = DefaultProcesses()
	}
	if store == nil {
		store = events.NewStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		gw:        gw,
		resolver:  resolve.NewResolver(log),
		splitter:  split.NewSplitter(log, store),
		corrector: correction.NewEngine(log, store),
		buffers:   buffer.NewManager(log, store),
		procs:     procs,
		log:       log,
	}
}

// Handle runs one interaction of a process and returns the next
// screen. Expected operational failures come back as an Envelope that
// keeps the operator on a productive state with a message; only
// unknown errors return a non-nil error.
func (m *Machine) Handle(ctx context.Context, id ProcessID, action Action, req Request) (*Envelope, error) {
	proc, ok := m.procs[id]
	if !ok {
		return nil, fmt.Errorf("unknown process %q", id)
	}

	env, err := m.dispatch(ctx, proc, action, req)
	if err != nil {
		return m.mapError(ctx, action, req, err)
	}
	m.log.Debug("workflow step",
		zap.String("process", string(id)),
		zap.String("action", string(action)),
		zap.String("next_state", string(env.NextState)),
	)
	return env, nil
}

func (m *Machine) dispatch(ctx context.Context, proc *Process, action Action, req Request) (*Envelope, error) {
	switch action {
	case ActionStart:
		return m.handleStart(ctx, proc, req)
	case ActionScanLine:
		return m.handleScanLine(ctx, proc, req)
	case ActionSetDestination:
		return m.handleSetDestination(ctx, proc, req)
	case ActionStockIssue:
		return m.handleStockIssue(ctx, proc, req)
	case ActionZeroCheck:
		return m.handleZeroCheck(ctx, proc, req)
	case ActionUnloadAll:
		return m.handleUnloadAll(ctx, proc, req)
	case ActionUnloadSingle:
		return m.handleUnloadSingle(ctx, proc, req)
	case ActionAbandon:
		return m.handleAbandon(ctx, req)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// handleStart resolves the opening scan: a document name, a package or
// a location, depending on the process. A single resulting line skips
// the selection screen entirely.
func (m *Machine) handleStart(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	if proc.Options.StartByDocument {
		tr, err := m.gw.FindTransferByName(ctx, req.Scanned)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			lines, err := m.gw.LinesForTransfer(ctx, tr.ID)
			if err != nil {
				return nil, err
			}
			lines = open(claimable(lines, req.Operator))
			if len(lines) == 0 {
				return nil, fmt.Errorf("document %s has no open work: %w", tr.Name, entities.ErrNotFound)
			}
			return m.presentLines(ctx, proc, lines)
		}
	}
	if proc.Options.StartByPackage {
		pkg, err := m.gw.FindPackage(ctx, req.Scanned)
		if err != nil {
			return nil, err
		}
		if pkg != nil {
			lines, err := m.gw.DemandLinesIn(ctx, pkg.LocationID, repositories.LineFilters{
				Operator:  req.Operator,
				PackageID: pkg.ID,
			})
			if err != nil {
				return nil, err
			}
			lines = open(lines)
			if len(lines) == 0 {
				return nil, fmt.Errorf("package %s has no open work: %w", pkg.Name, entities.ErrNotFound)
			}
			return m.presentLines(ctx, proc, lines)
		}
	}

	loc, err := m.gw.FindLocation(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("nothing to start from %q: %w", req.Scanned, entities.ErrNotFound)
	}
	lines, err := m.gw.DemandLinesIn(ctx, loc.ID, repositories.LineFilters{Operator: req.Operator})
	if err != nil {
		return nil, err
	}
	lines = open(lines)
	if len(lines) == 0 {
		return nil, fmt.Errorf("no open work in %s: %w", loc.Name, entities.ErrNotFound)
	}
	return m.presentLines(ctx, proc, lines)
}

// handleScanLine narrows the working set with one more scan
func (m *Machine) handleScanLine(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	lines, err := m.workingSet(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := m.resolver.Resolve(ctx, m.gw, req.Scanned, resolve.WorkingSet{
		Lines: lines,
		Side:  proc.Options.Side,
	})
	if err != nil {
		return nil, err
	}

	switch out.Kind {
	case resolve.NotFound:
		return nil, fmt.Errorf("code %q matches no pending work: %w", req.Scanned, entities.ErrNotFound)
	case resolve.Ambiguous:
		return nil, &entities.AmbiguousError{
			Discriminator: out.Discriminator,
			Candidates:    len(out.Lines),
		}
	}

	if out.Line != nil {
		qty := out.DefaultQty
		if proc.Options.PrefillQuantity {
			qty = out.Line.ReservedQty
		}
		return m.destinationScreen(ctx, out.Line, qty), nil
	}

	// A package matched; its lines are processed as one unit, line by
	// line from the same screen.
	payload := SetDestinationPayload{
		Lines: lineViews(ctx, m.gw, out.Lines),
	}
	if out.Package != nil {
		payload.Package = out.Package.Name
	}
	return newEnvelope(StateSetDestination, payload), nil
}

// handleSetDestination applies the counted quantity of the selected
// line to a scanned destination, either a buffer package or a final
// location.
func (m *Machine) handleSetDestination(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	line, err := m.gw.GetLine(ctx, req.LineID)
	if err != nil {
		return nil, err
	}
	qty := req.Quantity
	if qty.IsZero() {
		qty = line.ReservedQty
	}

	pkg, err := m.gw.FindPackage(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		if !proc.Options.AllowPackage {
			return nil, &entities.ForbiddenError{Reason: "this process does not pick into packages"}
		}
		applied, err := m.splitter.Apply(ctx, m.gw, line.ID, qty, pkg.ID, req.Operator)
		if err != nil {
			return nil, err
		}
		return m.afterPick(ctx, proc, req, applied.Processed)
	}

	loc, err := m.gw.FindLocation(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("destination %q not found: %w", req.Scanned, entities.ErrNotFound)
	}
	if proc.Options.RequirePackage {
		return nil, &entities.ForbiddenError{Reason: "scan a destination package, not a location"}
	}

	root, err := m.allowedRoot(ctx, proc)
	if err != nil {
		return nil, err
	}

	// A direct location drop picks and finalizes in one step. Both
	// mutations commit together or not at all.
	var applied *split.Applied
	err = m.gw.InTransaction(ctx, func(tx repositories.Gateway) error {
		if err := m.buffers.CheckDestination(ctx, tx, loc.ID, root, line.DestLocationID, req.Confirmed); err != nil {
			return err
		}
		var err error
		applied, err = m.splitter.ApplyIn(ctx, tx, line.ID, qty, uuid.Nil, req.Operator)
		if err != nil {
			return err
		}
		return tx.MarkDone(ctx, applied.Processed.ID, loc.ID)
	})
	if err != nil {
		return nil, err
	}
	return m.afterPick(ctx, proc, req, applied.Processed)
}

// handleStockIssue declares the selected line's stock absent and
// routes the operator to the replacement pick when one was reserved in
// the working area.
func (m *Machine) handleStockIssue(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	declared, err := m.corrector.DeclareStockIssue(ctx, m.gw, req.LineID, req.Operator, req.WorkingLocationID)
	if err != nil {
		return nil, err
	}

	if declared.Replacement != nil {
		qty := decimal.NewFromInt(1)
		if proc.Options.PrefillQuantity {
			qty = declared.Replacement.ReservedQty
		}
		env := m.destinationScreen(ctx, declared.Replacement, qty)
		source := declared.Replacement.SourceLocationID.String()
		if l, err := m.gw.GetLocation(ctx, declared.Replacement.SourceLocationID); err == nil {
			source = l.Name
		}
		return env.withPopup(fmt.Sprintf("stock issue recorded, pick from %s instead", source)), nil
	}

	env, err := m.continueWork(ctx, proc, req)
	if err != nil {
		return nil, err
	}
	return env.withMessage(SeverityWarning, "stock issue recorded, no replacement stock in this area"), nil
}

// handleZeroCheck records the operator's answer to a pending shelf
// emptiness question
func (m *Machine) handleZeroCheck(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	_, err := m.corrector.ConfirmZero(ctx, m.gw, req.LocationID, req.ProductID, req.LotID, req.Confirmed)
	if err != nil {
		return nil, err
	}
	env, err := m.continueWork(ctx, proc, req)
	if err != nil {
		return nil, err
	}
	if req.Confirmed {
		return env.withMessage(SeverityInfo, "empty shelf confirmed"), nil
	}
	return env.withMessage(SeverityInfo, "discrepancy noted, an inventory audit was requested"), nil
}

// handleUnloadAll drops every buffered line in scope at the scanned
// destination
func (m *Machine) handleUnloadAll(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	dest, err := m.gw.FindLocation(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, fmt.Errorf("destination %q not found: %w", req.Scanned, entities.ErrNotFound)
	}
	root, err := m.allowedRoot(ctx, proc)
	if err != nil {
		return nil, err
	}
	scope := buffer.Scope{
		LocationID: req.WorkingLocationID,
		SystemWide: proc.Options.SystemWideUnload,
	}
	result, err := m.buffers.UnloadAll(ctx, m.gw, req.Operator, scope, dest.ID, root, req.Confirmed)
	if err != nil {
		return nil, err
	}
	return m.afterUnload(ctx, proc, req, result)
}

// handleUnloadSingle drops one buffered package at the scanned
// destination
func (m *Machine) handleUnloadSingle(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	dest, err := m.gw.FindLocation(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, fmt.Errorf("destination %q not found: %w", req.Scanned, entities.ErrNotFound)
	}
	root, err := m.allowedRoot(ctx, proc)
	if err != nil {
		return nil, err
	}
	result, err := m.buffers.UnloadOne(ctx, m.gw, req.Operator, req.PackageID, dest.ID, root, req.Confirmed)
	if err != nil {
		return nil, err
	}
	return m.afterUnload(ctx, proc, req, result)
}

// handleAbandon releases the operator's in-progress work and returns
// to the start screen
func (m *Machine) handleAbandon(ctx context.Context, req Request) (*Envelope, error) {
	released, err := m.buffers.Abandon(ctx, m.gw, req.Operator)
	if err != nil {
		return nil, err
	}
	env := newEnvelope(StateStart, nil)
	if released == 0 {
		return env.withMessage(SeverityInfo, "nothing in progress to abandon"), nil
	}
	return env.withMessage(SeverityInfo, fmt.Sprintf("%d lines released back to open work", released)), nil
}

// afterPick decides the screen following a processed quantity: a zero
// check when the pick emptied its source stock, otherwise the next
// open work.
func (m *Machine) afterPick(ctx context.Context, proc *Process, req Request, picked *entities.DemandLine) (*Envelope, error) {
	if proc.Options.ZeroCheck {
		due, err := m.zeroCheckDue(ctx, picked.SourceLocationID, picked.ProductID, picked.LotID)
		if err != nil {
			return nil, err
		}
		if due {
			payload := ZeroCheckPayload{
				Location:   picked.SourceLocationID.String(),
				Product:    picked.ProductID.String(),
				LocationID: picked.SourceLocationID.String(),
				ProductID:  picked.ProductID.String(),
			}
			if l, err := m.gw.GetLocation(ctx, picked.SourceLocationID); err == nil {
				payload.Location = l.Name
			}
			if p, err := m.gw.GetProduct(ctx, picked.ProductID); err == nil {
				payload.Product = p.Name
			}
			if picked.LotID != uuid.Nil {
				payload.LotID = picked.LotID.String()
				if lot, err := m.gw.GetLot(ctx, picked.LotID); err == nil {
					payload.Lot = lot.Name
				}
			}
			env := newEnvelope(StateZeroCheck, payload)
			return env.withMessage(SeverityInfo, fmt.Sprintf("confirm %s is now empty of %s", payload.Location, payload.Product)), nil
		}
	}
	return m.continueWork(ctx, proc, req)
}

// zeroCheckDue reports whether a pick left its source stock with
// nothing available and nothing still waiting to be picked
func (m *Machine) zeroCheckDue(ctx context.Context, locationID, productID, lotID uuid.UUID) (bool, error) {
	avail, err := m.gw.Available(ctx, locationID, productID, lotID)
	if err != nil {
		return false, err
	}
	if avail.IsPositive() {
		return false, nil
	}
	lines, err := m.gw.LinesForStock(ctx, locationID, productID, lotID)
	if err != nil {
		return false, err
	}
	for _, l := range lines {
		if l.State.Active() && l.DoneQty.IsZero() {
			return false, nil
		}
	}
	return true, nil
}

// continueWork picks the next screen from what remains: open lines in
// the working set, then buffered packages to unload, then the summary.
func (m *Machine) continueWork(ctx context.Context, proc *Process, req Request) (*Envelope, error) {
	lines, err := m.workingSet(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		return m.presentLines(ctx, proc, lines)
	}

	scope := buffer.Scope{
		LocationID: req.WorkingLocationID,
		SystemWide: proc.Options.SystemWideUnload,
	}
	entries, err := m.buffers.BufferedLines(ctx, m.gw, req.Operator, scope)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return newEnvelope(StateUnloadAll, unloadPayload(ctx, m.gw, entries)), nil
	}
	return m.summary(ctx, req)
}

// afterUnload decides where an unload leads: more packages, more
// lines, or the summary
func (m *Machine) afterUnload(ctx context.Context, proc *Process, req Request, result *buffer.Result) (*Envelope, error) {
	scope := buffer.Scope{
		LocationID: req.WorkingLocationID,
		SystemWide: proc.Options.SystemWideUnload,
	}
	entries, err := m.buffers.BufferedLines(ctx, m.gw, req.Operator, scope)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		env := newEnvelope(StateUnloadSingle, unloadPayload(ctx, m.gw, entries))
		return env.withMessage(SeverityInfo, fmt.Sprintf("%d lines unloaded, more packages remain", len(result.Done))), nil
	}
	if result.RemainingWork {
		lines, err := m.workingSet(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(lines) > 0 {
			env, err := m.presentLines(ctx, proc, lines)
			if err != nil {
				return nil, err
			}
			return env.withMessage(SeverityInfo, fmt.Sprintf("%d lines unloaded", len(result.Done))), nil
		}
	}
	env, err := m.summary(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.withMessage(SeverityInfo, fmt.Sprintf("%d lines unloaded", len(result.Done))), nil
}

func (m *Machine) summary(ctx context.Context, req Request) (*Envelope, error) {
	var lines []*entities.DemandLine
	var err error
	switch {
	case req.TransferID != uuid.Nil:
		lines, err = m.gw.LinesForTransfer(ctx, req.TransferID)
	case req.WorkingLocationID != uuid.Nil:
		lines, err = m.gw.DemandLinesIn(ctx, req.WorkingLocationID, repositories.LineFilters{
			Operator:    req.Operator,
			IncludeDone: true,
		})
	}
	if err != nil {
		return nil, err
	}

	done := 0
	for _, l := range lines {
		if l.State == entities.LineDone && l.AssignedOperator == req.Operator {
			done++
		}
	}
	return newEnvelope(StateSummary, SummaryPayload{Completed: done}), nil
}

// workingSet rebuilds the candidate lines of the session from the
// identifiers the client echoes back
func (m *Machine) workingSet(ctx context.Context, req Request) ([]*entities.DemandLine, error) {
	if req.TransferID != uuid.Nil {
		lines, err := m.gw.LinesForTransfer(ctx, req.TransferID)
		if err != nil {
			return nil, err
		}
		return open(claimable(lines, req.Operator)), nil
	}
	if req.WorkingLocationID == uuid.Nil {
		return nil, nil
	}
	lines, err := m.gw.DemandLinesIn(ctx, req.WorkingLocationID, repositories.LineFilters{Operator: req.Operator})
	if err != nil {
		return nil, err
	}
	return open(lines), nil
}

// open drops lines already picked into a buffer; they wait for the
// unload stage, not the selection screen.
func open(lines []*entities.DemandLine) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, l := range lines {
		if l.DoneQty.IsZero() {
			out = append(out, l)
		}
	}
	return out
}

// presentLines shows the selection screen, or jumps straight to the
// destination screen when only one line is in play
func (m *Machine) presentLines(ctx context.Context, proc *Process, lines []*entities.DemandLine) (*Envelope, error) {
	if len(lines) == 1 {
		qty := decimal.Zero
		if proc.Options.PrefillQuantity {
			qty = lines[0].ReservedQty
		}
		return m.destinationScreen(ctx, lines[0], qty), nil
	}
	return newEnvelope(StateSelectLine, SelectLinePayload{Lines: lineViews(ctx, m.gw, lines)}), nil
}

func (m *Machine) destinationScreen(ctx context.Context, line *entities.DemandLine, qty decimal.Decimal) *Envelope {
	view := lineView(ctx, m.gw, line)
	return newEnvelope(StateSetDestination, SetDestinationPayload{
		Line: &view,
		Qty:  qty,
	})
}

// allowedRoot resolves the process's destination restriction, if any
func (m *Machine) allowedRoot(ctx context.Context, proc *Process) (uuid.UUID, error) {
	if proc.Options.AllowedDestBarcode == "" {
		return uuid.Nil, nil
	}
	loc, err := m.gw.FindLocation(ctx, proc.Options.AllowedDestBarcode)
	if err != nil {
		return uuid.Nil, err
	}
	if loc == nil {
		return uuid.Nil, fmt.Errorf("allowed destination %q not found: %w", proc.Options.AllowedDestBarcode, entities.ErrNotFound)
	}
	return loc.ID, nil
}

// mapError turns the operational error taxonomy into envelopes that
// keep the operator on a productive screen. Errors outside the
// taxonomy are returned as-is.
func (m *Machine) mapError(ctx context.Context, action Action, req Request, err error) (*Envelope, error) {
	state := fallbackState(action)

	var conf *entities.ConfirmationError
	if errors.As(err, &conf) {
		payload := confirmationPayload(ctx, m.gw, state, conf)
		return newEnvelope(state, payload).withMessage(SeverityWarning, conf.Body), nil
	}
	var amb *entities.AmbiguousError
	if errors.As(err, &amb) {
		// Show the still ambiguous candidates so the operator can scan
		// the discriminator against them.
		var payload interface{}
		if lines, wsErr := m.workingSet(ctx, req); wsErr == nil && len(lines) > 0 {
			payload = SelectLinePayload{Lines: lineViews(ctx, m.gw, lines)}
		}
		return newEnvelope(state, payload).withMessage(SeverityWarning, amb.Discriminator), nil
	}
	var forb *entities.ForbiddenError
	if errors.As(err, &forb) {
		return newEnvelope(state, nil).withMessage(SeverityError, forb.Reason), nil
	}

	switch {
	case errors.Is(err, entities.ErrRecordGone):
		env := newEnvelope(StateSelectLine, nil)
		return env.withMessage(SeverityWarning, "this work was changed elsewhere, pick a line again"), nil
	case errors.Is(err, entities.ErrAlreadyDone),
		errors.Is(err, entities.ErrOverPick),
		errors.Is(err, entities.ErrNoCapacity),
		errors.Is(err, entities.ErrNotFound),
		errors.Is(err, entities.ErrForbidden):
		return newEnvelope(state, nil).withMessage(SeverityError, err.Error()), nil
	}

	m.log.Error("workflow failure",
		zap.String("action", string(action)),
		zap.String("operator", req.Operator),
		zap.Error(err),
	)
	return nil, err
}

// fallbackState is the screen an operator stays on when their action
// is rejected
func fallbackState(action Action) State {
	switch action {
	case ActionStart:
		return StateStart
	case ActionScanLine, ActionStockIssue, ActionZeroCheck:
		return StateSelectLine
	case ActionSetDestination:
		return StateSetDestination
	case ActionUnloadAll:
		return StateUnloadAll
	case ActionUnloadSingle:
		return StateUnloadSingle
	default:
		return StateStart
	}
}

func confirmationPayload(ctx context.Context, gw repositories.Gateway, state State, conf *entities.ConfirmationError) interface{} {
	proposed := conf.ProposedLocationID.String()
	if loc, err := gw.GetLocation(ctx, conf.ProposedLocationID); err == nil {
		proposed = loc.Name
	}
	switch state {
	case StateUnloadAll, StateUnloadSingle:
		return UnloadPayload{ConfirmationRequired: true, ProposedLocation: proposed}
	default:
		return SetDestinationPayload{ConfirmationRequired: true, ProposedLocation: proposed}
	}
}

func unloadPayload(ctx context.Context, gw repositories.Gateway, entries []buffer.Entry) UnloadPayload {
	payload := UnloadPayload{}
	for _, e := range entries {
		v := lineView(ctx, gw, e.Line)
		if e.Package != nil {
			v.Package = e.Package.Name
		}
		payload.Entries = append(payload.Entries, v)
	}
	return payload
}

// claimable filters a transfer's lines to active ones this operator
// may work on
func claimable(lines []*entities.DemandLine, operator string) []*entities.DemandLine {
	var out []*entities.DemandLine
	for _, l := range lines {
		if !l.State.Active() {
			continue
		}
		if l.AssignedOperator != "" && l.AssignedOperator != operator {
			continue
		}
		out = append(out, l)
	}
	return out
}
