package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-internal/chamados-service/internal/api/dto"
	"github.com/helpdesk-internal/chamados-service/internal/auth"
	"github.com/helpdesk-internal/chamados-service/internal/domain"
	"github.com/helpdesk-internal/chamados-service/internal/service"
	apperrors "github.com/helpdesk-internal/chamados-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. The ticket is always opened for the
// authenticated caller.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	account, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Department == "" {
		return apperrors.NewValidationError("department required", nil)
	}

	input := service.TicketCreateInput{
		Department:  req.Department,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		IsTask:      req.IsTask || account.OnlyTasks,
		Attachments: req.Attachments,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), account.Login, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ListTickets GET /tickets. Staff see every shard and may narrow with
// ?owner=; everyone else sees their own shard only.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	account, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	owner := account.Login
	if account.Role == domain.RoleTI {
		owner = c.Query("owner")
	}

	tickets, err := h.service.ListTickets(c.UserContext(), owner)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	account, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if account.Role != domain.RoleTI && ticket.Owner != account.Login {
		return apperrors.NewForbidden("not your ticket")
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// UpdateTicket PATCH /tickets/:id. Staff only; routed through the state
// machine when a status is present.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), service.TicketPatch{
		Status:          req.Status,
		AcceptNotes:     req.AcceptNotes,
		ResolutionNotes: req.ResolutionNotes,
		Deadline:        req.Deadline,
		Priority:        req.Priority,
		IsTask:          req.IsTask,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Poke POST /tickets/:id/poke.
func (h *TicketsHandler) Poke(c *fiber.Ctx) error {
	account, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Escalate(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ReopenTicket POST /tickets/:id/reopen. Staff only.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Reopen(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

func requirePrincipal(c *fiber.Ctx) (*domain.Account, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Account, nil
}
