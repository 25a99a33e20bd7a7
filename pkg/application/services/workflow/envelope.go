package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/domain/entities"
	"github.com/vsinha/scanflow/pkg/domain/repositories"
)

// State names a screen of the scan workflow
type State string

const (
	StateStart          State = "start"
	StateSelectLine     State = "select_line"
	StateSetDestination State = "set_destination"
	StateUnloadAll      State = "unload_all"
	StateUnloadSingle   State = "unload_single"
	StateZeroCheck      State = "zero_check"
	StateSummary        State = "summary"
)

// Severity tags a user-visible message
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is a user-visible notice attached to a response
type Message struct {
	Type Severity `json:"message_type"`
	Body string   `json:"body"`
}

// Popup is a blocking notice the client must acknowledge
type Popup struct {
	Body string `json:"body"`
}

// Envelope is the uniform response of every workflow call. Data is
// keyed by the next state so each screen's payload keeps its own
// shape; a missing key means an empty payload for that state.
type Envelope struct {
	Data      map[State]interface{} `json:"data,omitempty"`
	NextState State                 `json:"next_state"`
	Message   *Message              `json:"message,omitempty"`
	Popup     *Popup                `json:"popup,omitempty"`
}

func newEnvelope(state State, payload interface{}) *Envelope {
	env := &Envelope{NextState: state}
	if payload != nil {
		env.Data = map[State]interface{}{state: payload}
	}
	return env
}

func (e *Envelope) withMessage(sev Severity, body string) *Envelope {
	e.Message = &Message{Type: sev, Body: body}
	return e
}

func (e *Envelope) withPopup(body string) *Envelope {
	e.Popup = &Popup{Body: body}
	return e
}

// LineView is the client-facing projection of a demand line
type LineView struct {
	ID          string          `json:"id"`
	Product     string          `json:"product"`
	Lot         string          `json:"lot,omitempty"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Package     string          `json:"package,omitempty"`
	ReservedQty decimal.Decimal `json:"reserved_qty"`
	DoneQty     decimal.Decimal `json:"qty_done"`
}

// SelectLinePayload lists the candidate lines of the working set
type SelectLinePayload struct {
	Lines []LineView `json:"lines"`
}

// SetDestinationPayload carries the selected line (or the lines of a
// matched package) and the quantity the screen starts from
type SetDestinationPayload struct {
	Line                 *LineView       `json:"line,omitempty"`
	Lines                []LineView      `json:"lines,omitempty"`
	Package              string          `json:"package,omitempty"`
	Qty                  decimal.Decimal `json:"qty"`
	ConfirmationRequired bool            `json:"confirmation_required,omitempty"`
	ProposedLocation     string          `json:"proposed_location,omitempty"`
}

// UnloadPayload lists the buffered entries awaiting consolidation
type UnloadPayload struct {
	Entries              []LineView `json:"entries"`
	ConfirmationRequired bool       `json:"confirmation_required,omitempty"`
	ProposedLocation     string     `json:"proposed_location,omitempty"`
}

// ZeroCheckPayload identifies the stock the operator must confirm as
// empty. The ids are echoed back with the answer.
type ZeroCheckPayload struct {
	Location   string `json:"location"`
	Product    string `json:"product"`
	Lot        string `json:"lot,omitempty"`
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	LotID      string `json:"lot_id,omitempty"`
}

// SummaryPayload reports the completed work of a finished scope
type SummaryPayload struct {
	Completed int `json:"completed"`
}

// lineView projects a demand line for the client, resolving referenced
// names best-effort: a vanished reference renders as its id.
func lineView(ctx context.Context, gw repositories.Gateway, line *entities.DemandLine) LineView {
	v := LineView{
		ID:          line.ID.String(),
		ReservedQty: line.ReservedQty,
		DoneQty:     line.DoneQty,
	}
	if p, err := gw.GetProduct(ctx, line.ProductID); err == nil {
		v.Product = p.Name
	} else {
		v.Product = line.ProductID.String()
	}
	if line.LotID != uuid.Nil {
		if lot, err := gw.GetLot(ctx, line.LotID); err == nil {
			v.Lot = lot.Name
		}
	}
	if l, err := gw.GetLocation(ctx, line.SourceLocationID); err == nil {
		v.Source = l.Name
	}
	if l, err := gw.GetLocation(ctx, line.DestLocationID); err == nil {
		v.Destination = l.Name
	}
	if line.DestPackageID != uuid.Nil {
		if pkg, err := gw.GetPackage(ctx, line.DestPackageID); err == nil {
			v.Package = pkg.Name
		}
	}
	return v
}

func lineViews(ctx context.Context, gw repositories.Gateway, lines []*entities.DemandLine) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineView(ctx, gw, l))
	}
	return out
}
