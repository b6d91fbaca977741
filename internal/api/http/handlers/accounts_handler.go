package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-internal/chamados-service/internal/api/dto"
	"github.com/helpdesk-internal/chamados-service/internal/service"
	apperrors "github.com/helpdesk-internal/chamados-service/pkg/util"
)

// AccountsHandler exposes login and the staff-only account directory.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accountService}
}

// Login handles POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Login == "" || req.Password == "" {
		return apperrors.NewValidationError("login and password required", nil)
	}

	account, token, exp, err := h.accounts.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"account": dto.AccountFromDomain(account),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// CreateAccount handles POST /accounts.
func (h *AccountsHandler) CreateAccount(c *fiber.Ctx) error {
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	account, err := h.accounts.CreateAccount(c.UserContext(), service.AccountCreateInput{
		Login:        req.Login,
		Password:     req.Password,
		Role:         req.Role,
		ContactEmail: req.ContactEmail,
		OnlyTasks:    req.OnlyTasks,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AccountFromDomain(account)})
}

// ListAccounts handles GET /accounts.
func (h *AccountsHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.accounts.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, dto.AccountFromDomain(&accounts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteAccount handles DELETE /accounts/:id. Tickets opened by the
// account stay in the store under the orphaned owner login.
func (h *AccountsHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.accounts.DeleteAccount(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}
