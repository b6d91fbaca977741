package events

import (
	"time"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

// EventType enumerates lifecycle event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAccepted EventType = "ticket_accepted"
	EventTicketResolved EventType = "ticket_resolved"
)

// Event represents a lifecycle event emitted by the ticket service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload carries the full ticket snapshot; the
// notification side routes by IsTask and Priority.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Owner  string        `json:"owner"`
}

// TicketAcceptedPayload carries what the accept mail needs.
type TicketAcceptedPayload struct {
	OwnerContact string     `json:"owner_contact"`
	TicketID     string     `json:"ticket_id"`
	Notes        string     `json:"notes"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// TicketResolvedPayload carries what the resolution mail needs.
type TicketResolvedPayload struct {
	OwnerContact string `json:"owner_contact"`
	TicketID     string `json:"ticket_id"`
	Notes        string `json:"notes"`
}
