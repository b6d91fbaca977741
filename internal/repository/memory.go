package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

// In-memory implementations with the same contracts as the Postgres
// ones. Used when no POSTGRES_DSN is configured and throughout the
// tests. Not durable across restarts.

// MemoryTicketRepository keeps tickets in a per-shard map.
type MemoryTicketRepository struct {
	mu     sync.RWMutex
	shards map[string]map[string]*domain.Ticket
}

// NewMemoryTicketRepository builds an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{shards: make(map[string]map[string]*domain.Ticket)}
}

func (r *MemoryTicketRepository) Put(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	shard := ShardKey(ticket.Owner)
	records, ok := r.shards[shard]
	if !ok {
		records = make(map[string]*domain.Ticket)
		r.shards[shard] = records
	}

	current := records[ticket.ID]
	if ticket.Version == 0 {
		if current != nil {
			return ErrVersionConflict
		}
		ticket.Version = 1
	} else {
		if current == nil || current.Version != ticket.Version {
			return ErrVersionConflict
		}
		ticket.Version++
	}
	records[ticket.ID] = ticket.Clone()
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// No secondary index: scan shard by shard until the ID matches.
	for _, records := range r.shards {
		if ticket, ok := records[id]; ok {
			return ticket.Clone(), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryTicketRepository) List(_ context.Context, owner string) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Ticket
	if owner != "" {
		for _, ticket := range r.shards[ShardKey(owner)] {
			result = append(result, *ticket.Clone())
		}
	} else {
		for _, records := range r.shards {
			for _, ticket := range records {
				result = append(result, *ticket.Clone())
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// MemoryAccountRepository keeps accounts keyed by ID.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewMemoryAccountRepository builds an empty store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Login == account.Login {
			return ErrDuplicateLogin
		}
	}
	dup := *account
	r.accounts[account.ID] = &dup
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	dup := *account
	return &dup, nil
}

func (r *MemoryAccountRepository) GetByLogin(_ context.Context, login string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.Login == login {
			dup := *account
			return &dup, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryAccountRepository) List(_ context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, *account)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryAccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.accounts, id)
	return nil
}

func (r *MemoryAccountRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.accounts)), nil
}

// MemoryCounterStore keeps counters in a map.
type MemoryCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryCounterStore builds an empty counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{values: make(map[string]int64)}
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key]++
	return s.values[key], nil
}

// Seed sets the last issued value for a key. Test helper.
func (s *MemoryCounterStore) Seed(key string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
