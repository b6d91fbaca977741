package dto

import (
	"time"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Department  domain.Department `json:"department"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Priority    bool              `json:"priority"`
	IsTask      bool              `json:"is_task"`
	Attachments []string          `json:"attachments"`
}

// UpdateTicketRequest payload for partial updates. Nil pointers leave
// the field untouched.
type UpdateTicketRequest struct {
	Status          domain.TicketStatus `json:"status"`
	AcceptNotes     string              `json:"accept_notes"`
	ResolutionNotes string              `json:"resolution_notes"`
	Deadline        *time.Time          `json:"deadline"`
	Priority        *bool               `json:"priority"`
	IsTask          *bool               `json:"is_task"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID              string              `json:"id"`
	Owner           string              `json:"owner"`
	Department      domain.Department   `json:"department"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          domain.TicketStatus `json:"status"`
	Priority        bool                `json:"priority"`
	IsTask          bool                `json:"is_task"`
	Attachments     []string            `json:"attachments"`
	AcceptNotes     string              `json:"accept_notes,omitempty"`
	ResolutionNotes string              `json:"resolution_notes,omitempty"`
	Deadline        *time.Time          `json:"deadline,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	AcceptedAt      *time.Time          `json:"accepted_at,omitempty"`
	ResolvedAt      *time.Time          `json:"resolved_at,omitempty"`
	LastPokeAt      *time.Time          `json:"last_poke_at,omitempty"`
	PokeCount       int                 `json:"poke_count"`
	Version         int64               `json:"version"`
}

// TicketFromDomain maps a domain ticket to its response shape.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	attachments := ticket.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return TicketResponse{
		ID:              ticket.ID,
		Owner:           ticket.Owner,
		Department:      ticket.Department,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		IsTask:          ticket.IsTask,
		Attachments:     attachments,
		AcceptNotes:     ticket.AcceptNotes,
		ResolutionNotes: ticket.ResolutionNotes,
		Deadline:        ticket.Deadline,
		CreatedAt:       ticket.CreatedAt,
		AcceptedAt:      ticket.AcceptedAt,
		ResolvedAt:      ticket.ResolvedAt,
		LastPokeAt:      ticket.LastPokeAt,
		PokeCount:       ticket.PokeCount,
		Version:         ticket.Version,
	}
}
