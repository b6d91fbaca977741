package dto

import (
	"time"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is the issued token envelope.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateAccountRequest payload.
type CreateAccountRequest struct {
	Login        string             `json:"login"`
	Password     string             `json:"password"`
	Role         domain.AccountRole `json:"role"`
	ContactEmail string             `json:"contact_email"`
	OnlyTasks    bool               `json:"only_tasks"`
}

// AccountResponse never carries the password hash.
type AccountResponse struct {
	ID           string             `json:"id"`
	Login        string             `json:"login"`
	Role         domain.AccountRole `json:"role"`
	ContactEmail string             `json:"contact_email"`
	OnlyTasks    bool               `json:"only_tasks"`
	CreatedAt    time.Time          `json:"created_at"`
}

// AccountFromDomain maps a domain account to its response shape.
func AccountFromDomain(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:           account.ID,
		Login:        account.Login,
		Role:         account.Role,
		ContactEmail: account.ContactEmail,
		OnlyTasks:    account.OnlyTasks,
		CreatedAt:    account.CreatedAt,
	}
}
