package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
	"github.com/helpdesk-internal/chamados-service/internal/events"
	"github.com/helpdesk-internal/chamados-service/internal/lifecycle"
	"github.com/helpdesk-internal/chamados-service/internal/repository"
	"github.com/helpdesk-internal/chamados-service/internal/sequence"
	apperrors "github.com/helpdesk-internal/chamados-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle: minting IDs,
// persisting records, routing updates through the state machine and
// gating escalations.
type TicketService struct {
	tickets    repository.TicketRepository
	accounts   repository.AccountRepository
	sequencer  *sequence.Sequencer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AccountRepo repository.AccountRepository
	Sequencer   *sequence.Sequencer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Department  domain.Department
	Title       string
	Description string
	Priority    bool
	IsTask      bool
	Attachments []string
}

// TicketPatch describes a partial update. Nil pointers leave the field
// untouched.
type TicketPatch struct {
	Status          domain.TicketStatus
	AcceptNotes     string
	ResolutionNotes string
	Deadline        *time.Time
	Priority        *bool
	IsTask          *bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		accounts:   deps.AccountRepo,
		sequencer:  deps.Sequencer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		clock:      time.Now,
	}
}

// CreateTicket mints a sequential ID and persists a pending ticket.
func (s *TicketService) CreateTicket(ctx context.Context, owner string, input TicketCreateInput) (*domain.Ticket, error) {
	if owner == "" {
		return nil, apperrors.NewValidationError("owner required", nil)
	}
	if !input.Department.Valid() {
		return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": input.Department})
	}

	now := s.clock()
	seq := s.sequencer.Next(ctx, sequence.KeyTicket)
	ticket := &domain.Ticket{
		ID:          fmt.Sprintf("%d_%s", seq, now.Format("20060102")),
		Owner:       owner,
		Department:  input.Department,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusPending,
		Priority:    input.Priority,
		IsTask:      input.IsTask,
		Attachments: input.Attachments,
		CreatedAt:   now,
	}

	if err := s.tickets.Put(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Ticket: *ticket.Clone(),
			Owner:  owner,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets newest-first: one owner's shard when
// owner is given, every shard otherwise.
func (s *TicketService) ListTickets(ctx context.Context, owner string) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, owner)
}

// GetTicket fetches a single ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket applies a partial patch. Status changes are validated by
// the state machine; annotations attach during their transition; the
// routing flags can be patched on their own. Persists the fully merged
// record before returning, and only fires an event for transitions that
// actually stamped their timestamp.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	merged := ticket.Clone()
	var outcome *lifecycle.Outcome

	if patch.Status != "" {
		outcome, err = lifecycle.Apply(ticket, lifecycle.Change{
			Status:          patch.Status,
			AcceptNotes:     patch.AcceptNotes,
			ResolutionNotes: patch.ResolutionNotes,
			Deadline:        patch.Deadline,
		}, now)
		if err != nil {
			return nil, mapLifecycleError(err)
		}
		merged = outcome.Ticket
	}

	if patch.Priority != nil {
		merged.Priority = *patch.Priority
	}
	if patch.IsTask != nil {
		merged.IsTask = *patch.IsTask
	}

	if err := s.put(ctx, merged); err != nil {
		return nil, err
	}

	if outcome != nil {
		s.emitTransitionEvents(ctx, merged, outcome)
	}
	return merged, nil
}

// Escalate is the poke action: gated by elapsed time, then routed
// through the regular store path like any other update.
func (s *TicketService) Escalate(ctx context.Context, actor *domain.Account, id string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role != domain.RoleTI && ticket.Owner != actor.Login {
		return nil, apperrors.NewForbidden("tickets can only be poked by their owner")
	}

	now := s.clock()
	decision := lifecycle.CanEscalate(ticket, now)
	if !decision.Allowed {
		details := map[string]any{}
		if decision.NextEligible != nil {
			details["next_eligible"] = decision.NextEligible.Format(time.RFC3339)
		}
		return nil, apperrors.NewValidationError("escalation not yet available", details)
	}

	merged := ticket.Clone()
	stamp := now
	merged.LastPokeAt = &stamp
	merged.PokeCount++

	if err := s.put(ctx, merged); err != nil {
		return nil, err
	}
	s.logger.Info("ticket poked",
		zap.String("ticket_id", merged.ID),
		zap.String("owner", merged.Owner),
		zap.Int("poke_count", merged.PokeCount))
	return merged, nil
}

// Reopen moves a terminal ticket back to pending. Exposed only to the
// ti role at the transport layer.
func (s *TicketService) Reopen(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	merged, err := lifecycle.Reopen(ticket)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	if err := s.put(ctx, merged); err != nil {
		return nil, err
	}
	s.logger.Info("ticket reopened", zap.String("ticket_id", merged.ID))
	return merged, nil
}

func (s *TicketService) put(ctx context.Context, ticket *domain.Ticket) error {
	if err := s.tickets.Put(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("ticket was modified concurrently, retry", map[string]any{"id": ticket.ID})
		}
		return err
	}
	return nil
}

func (s *TicketService) emitTransitionEvents(ctx context.Context, ticket *domain.Ticket, outcome *lifecycle.Outcome) {
	if !outcome.Accepted && !outcome.Resolved {
		return
	}

	contact := s.ownerContact(ctx, ticket.Owner)
	if contact == "" {
		s.logger.Info("no contact email for ticket owner, skipping notification",
			zap.String("ticket_id", ticket.ID),
			zap.String("owner", ticket.Owner))
		return
	}

	if outcome.Accepted {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketAccepted,
			TicketID: ticket.ID,
			Payload: events.TicketAcceptedPayload{
				OwnerContact: contact,
				TicketID:     ticket.ID,
				Notes:        ticket.AcceptNotes,
				Deadline:     ticket.Deadline,
			},
		})
	}
	if outcome.Resolved {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketResolved,
			TicketID: ticket.ID,
			Payload: events.TicketResolvedPayload{
				OwnerContact: contact,
				TicketID:     ticket.ID,
				Notes:        ticket.ResolutionNotes,
			},
		})
	}
}

// ownerContact resolves the owner's contact address. Orphaned owners
// (account deleted after ticket creation) simply get no notification.
func (s *TicketService) ownerContact(ctx context.Context, owner string) string {
	account, err := s.accounts.GetByLogin(ctx, owner)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Warn("account lookup failed for notification", zap.String("owner", owner), zap.Error(err))
		}
		return ""
	}
	return account.ContactEmail
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapLifecycleError(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrResolutionNotesRequired):
		return apperrors.NewValidationError("resolution notes required", nil)
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, lifecycle.ErrNotReopenable):
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return err
}
