package entities

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the engine's recoverable failure taxonomy. The
// workflow state machine maps every one of these to a message plus a
// productive next state; only infrastructure failures propagate as
// plain errors.
var (
	// ErrNotFound reports a scan that matches nothing in scope.
	ErrNotFound = errors.New("not found in scope")
	// ErrAmbiguous reports a scan matching more than one candidate.
	ErrAmbiguous = errors.New("ambiguous scan")
	// ErrForbidden reports a valid entity outside the allowed scope.
	ErrForbidden = errors.New("forbidden")
	// ErrNeedsConfirmation reports a valid target deviating from the
	// expected one; the caller must re-submit with confirmation.
	ErrNeedsConfirmation = errors.New("confirmation required")
	// ErrOverPick reports a quantity exceeding the reserved quantity.
	ErrOverPick = errors.New("quantity exceeds reservation")
	// ErrAlreadyDone reports a mutation on a terminal line.
	ErrAlreadyDone = errors.New("line already done")
	// ErrRecordGone reports an entity that vanished or changed under a
	// concurrent operator.
	ErrRecordGone = errors.New("record gone")
	// ErrNoCapacity reports that no valid destination or stock exists.
	ErrNoCapacity = errors.New("no capacity available")
)

// AmbiguousError carries the discriminator an operator should scan next
// to resolve an ambiguous match.
type AmbiguousError struct {
	Discriminator string
	Candidates    int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous scan (%d candidates), %s", e.Candidates, e.Discriminator)
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }

// ForbiddenError carries the reason an otherwise valid scan is refused
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// ConfirmationError carries the proposed destination awaiting an
// explicit confirmed re-submission. No mutation has happened.
type ConfirmationError struct {
	ProposedLocationID uuid.UUID
	Body               string
}

func (e *ConfirmationError) Error() string { return e.Body }

func (e *ConfirmationError) Unwrap() error { return ErrNeedsConfirmation }
