package lifecycle

import (
	"errors"
	"strings"
	"time"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

var (
	// ErrInvalidTransition is returned when the requested status change is
	// not part of the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus is returned for statuses outside the enum.
	ErrUnknownStatus = errors.New("unknown ticket status")
	// ErrResolutionNotesRequired is returned when a resolve transition is
	// requested without notes.
	ErrResolutionNotesRequired = errors.New("resolution notes required")
	// ErrNotReopenable is returned when reopen is requested for a ticket
	// that is not in a terminal status.
	ErrNotReopenable = errors.New("only resolved or rejected tickets can be reopened")
)

// Change carries the requested transition plus annotations attached
// during it.
type Change struct {
	Status          domain.TicketStatus
	AcceptNotes     string
	ResolutionNotes string
	Deadline        *time.Time
}

// Outcome is the result of applying a transition. Ticket is a merged
// copy; the Accepted/Resolved flags mark which lifecycle timestamp was
// stamped by this call and therefore which notification event must fire.
// A duplicate transition stamps nothing and fires nothing.
type Outcome struct {
	Ticket   *domain.Ticket
	NoOp     bool
	Accepted bool
	Resolved bool
}

var transitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:  {domain.TicketStatusAccepted, domain.TicketStatusRejected},
	domain.TicketStatusAccepted: {domain.TicketStatusResolved},
	domain.TicketStatusResolved: {},
	domain.TicketStatusRejected: {},
}

func allowed(current, next domain.TicketStatus) bool {
	for _, candidate := range transitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Apply validates the requested transition against the table and returns
// the merged ticket. The input ticket is never mutated. Requesting the
// current status is a no-op that returns the ticket unchanged.
func Apply(ticket *domain.Ticket, change Change, now time.Time) (*Outcome, error) {
	if !change.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	if change.Status == ticket.Status {
		return &Outcome{Ticket: ticket.Clone(), NoOp: true}, nil
	}
	if !allowed(ticket.Status, change.Status) {
		return nil, ErrInvalidTransition
	}

	merged := ticket.Clone()
	merged.Status = change.Status
	outcome := &Outcome{Ticket: merged}

	switch change.Status {
	case domain.TicketStatusAccepted:
		if change.AcceptNotes != "" {
			merged.AcceptNotes = change.AcceptNotes
		}
		if change.Deadline != nil {
			merged.Deadline = change.Deadline
		}
		if merged.AcceptedAt == nil {
			stamp := now
			merged.AcceptedAt = &stamp
			outcome.Accepted = true
		}
	case domain.TicketStatusResolved:
		if strings.TrimSpace(change.ResolutionNotes) == "" {
			return nil, ErrResolutionNotesRequired
		}
		merged.ResolutionNotes = change.ResolutionNotes
		if merged.ResolvedAt == nil {
			stamp := now
			merged.ResolvedAt = &stamp
			outcome.Resolved = true
		}
	case domain.TicketStatusRejected:
		// Terminal, no timestamp and no notification.
	}

	return outcome, nil
}

// Reopen moves a terminal ticket back to pending. It is a named
// transition on its own, deliberately outside the regular table, and
// leaves the write-once timestamps untouched.
func Reopen(ticket *domain.Ticket) (*domain.Ticket, error) {
	if !ticket.Status.Terminal() {
		return nil, ErrNotReopenable
	}
	merged := ticket.Clone()
	merged.Status = domain.TicketStatusPending
	return merged, nil
}
