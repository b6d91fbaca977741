package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-internal/chamados-service/internal/auth"
	"github.com/helpdesk-internal/chamados-service/internal/config"
	"github.com/helpdesk-internal/chamados-service/internal/domain"
	"github.com/helpdesk-internal/chamados-service/internal/repository"
	"github.com/helpdesk-internal/chamados-service/internal/sequence"
	apperrors "github.com/helpdesk-internal/chamados-service/pkg/util"
)

// AccountService handles the account directory and login flow. Tickets
// survive their account: deletion here never touches the ticket store.
type AccountService struct {
	accounts   repository.AccountRepository
	sequencer  *sequence.Sequencer
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AccountCreateInput describes account creation payload.
type AccountCreateInput struct {
	Login        string
	Password     string
	Role         domain.AccountRole
	ContactEmail string
	OnlyTasks    bool
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, accounts repository.AccountRepository, sequencer *sequence.Sequencer, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts:   accounts,
		sequencer:  sequencer,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Login authenticates an account and issues a bearer token.
func (s *AccountService) Login(ctx context.Context, login, password string) (*domain.Account, string, time.Time, error) {
	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokens.GenerateToken(account)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return account, token, exp, nil
}

// CreateAccount registers a new login. Duplicate logins are a conflict.
func (s *AccountService) CreateAccount(ctx context.Context, input AccountCreateInput) (*domain.Account, error) {
	if input.Login == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("login and password required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           strconv.FormatInt(s.sequencer.Next(ctx, sequence.KeyAccount), 10),
		Login:        input.Login,
		PasswordHash: hash,
		Role:         input.Role,
		ContactEmail: input.ContactEmail,
		OnlyTasks:    input.OnlyTasks,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateLogin) {
			return nil, apperrors.NewConflict("login already registered", map[string]any{"login": input.Login})
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts returns every registered account.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// DeleteAccount removes an account. Its tickets stay readable under the
// orphaned owner reference.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound("account", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// GetByLogin exposes account lookup for collaborators.
func (s *AccountService) GetByLogin(ctx context.Context, login string) (*domain.Account, error) {
	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("account", map[string]any{"login": login})
		}
		return nil, err
	}
	return account, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// SeedDefaults creates the bootstrap accounts on an empty directory so
// a fresh install can be logged into.
func (s *AccountService) SeedDefaults(ctx context.Context) error {
	count, err := s.accounts.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []AccountCreateInput{
		{Login: "ti", Password: "admin", Role: domain.RoleTI, ContactEmail: "ti@empresa.com"},
		{Login: "admin", Password: "admin", Role: domain.RoleTI, ContactEmail: "admin@empresa.com"},
		{Login: "op", Password: "1234", Role: domain.RoleFuncionario, ContactEmail: "op@empresa.com"},
	}
	for _, input := range defaults {
		if _, err := s.CreateAccount(ctx, input); err != nil {
			return err
		}
	}
	s.logger.Warn("seeded default accounts with default passwords; change them")
	return nil
}
