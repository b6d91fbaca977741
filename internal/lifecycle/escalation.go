package lifecycle

import (
	"time"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

// Poke throttle windows. A pending ticket opens for escalation two
// hours after creation and again two hours after each poke; an accepted
// ticket re-opens one hour after each poke.
const (
	PendingPokeInterval  = 2 * time.Hour
	AcceptedPokeInterval = 1 * time.Hour
)

// EscalationDecision is the outcome of the poke gate. NextEligible is
// set only when Allowed is false and the ticket can become eligible
// later; terminal tickets return neither.
type EscalationDecision struct {
	Allowed      bool
	NextEligible *time.Time
}

// CanEscalate decides whether a poke is currently permitted. Pure:
// reads the ticket, never mutates it. Boundaries are inclusive, so a
// ticket created at T0 becomes escalatable at exactly T0+2h.
func CanEscalate(ticket *domain.Ticket, now time.Time) EscalationDecision {
	if ticket.Status.Terminal() {
		return EscalationDecision{}
	}

	switch ticket.Status {
	case domain.TicketStatusPending:
		createdBoundary := ticket.CreatedAt.Add(PendingPokeInterval)
		latest := createdBoundary
		ok := !now.Before(createdBoundary)
		if ticket.LastPokeAt != nil {
			pokeBoundary := ticket.LastPokeAt.Add(PendingPokeInterval)
			ok = ok && !now.Before(pokeBoundary)
			if pokeBoundary.After(latest) {
				latest = pokeBoundary
			}
		}
		if ok {
			return EscalationDecision{Allowed: true}
		}
		return EscalationDecision{NextEligible: &latest}

	case domain.TicketStatusAccepted:
		if ticket.LastPokeAt == nil {
			return EscalationDecision{Allowed: true}
		}
		pokeBoundary := ticket.LastPokeAt.Add(AcceptedPokeInterval)
		if !now.Before(pokeBoundary) {
			return EscalationDecision{Allowed: true}
		}
		return EscalationDecision{NextEligible: &pokeBoundary}
	}

	return EscalationDecision{}
}
