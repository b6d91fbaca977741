package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

func storedTicket(id, owner string, createdAt time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:         id,
		Owner:      owner,
		Department: domain.DepartmentContabil,
		Status:     domain.TicketStatusPending,
		CreatedAt:  createdAt,
	}
}

func TestMemoryTicketRepositoryListIsShardScopedAndNewestFirst(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(ctx, storedTicket("1_20260301", "alice", base)))
	require.NoError(t, repo.Put(ctx, storedTicket("2_20260301", "bob", base.Add(time.Hour))))
	require.NoError(t, repo.Put(ctx, storedTicket("3_20260301", "alice", base.Add(2*time.Hour))))

	alice, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "3_20260301", alice[0].ID)
	assert.Equal(t, "1_20260301", alice[1].ID)
	for _, ticket := range alice {
		assert.Equal(t, "alice", ticket.Owner)
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3_20260301", all[0].ID)
	assert.Equal(t, "2_20260301", all[1].ID)
	assert.Equal(t, "1_20260301", all[2].ID)
}

func TestMemoryTicketRepositoryGetByIDScansShards(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Put(ctx, storedTicket("7_20260301", "carol@empresa.com", base)))

	found, err := repo.GetByID(ctx, "7_20260301")
	require.NoError(t, err)
	assert.Equal(t, "carol@empresa.com", found.Owner)

	_, err = repo.GetByID(ctx, "99_20260301")
	assert.True(t, IsNotFound(err))
}

func TestMemoryTicketRepositoryVersionConflict(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	ticket := storedTicket("1_20260301", "alice", time.Now())
	require.NoError(t, repo.Put(ctx, ticket))
	assert.Equal(t, int64(1), ticket.Version)

	first, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	first.PokeCount = 1
	require.NoError(t, repo.Put(ctx, first))

	second.PokeCount = 5
	err = repo.Put(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The winning write is the one that persisted.
	current, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.PokeCount)
	assert.Equal(t, int64(2), current.Version)
}

func TestMemoryTicketRepositoryCloneIsolation(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	ticket := storedTicket("1_20260301", "alice", time.Now())
	ticket.Attachments = []string{"/uploads/alice_1/print.png"}
	require.NoError(t, repo.Put(ctx, ticket))

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Attachments[0] = "tampered"
	got.Status = domain.TicketStatusResolved

	fresh, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/alice_1/print.png", fresh.Attachments[0])
	assert.Equal(t, domain.TicketStatusPending, fresh.Status)
}

func TestMemoryAccountRepository(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	account := &domain.Account{ID: "1", Login: "op", Role: domain.RoleFuncionario, ContactEmail: "op@empresa.com", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, account))

	err := repo.Create(ctx, &domain.Account{ID: "2", Login: "op", Role: domain.RoleTI})
	assert.ErrorIs(t, err, ErrDuplicateLogin)

	byLogin, err := repo.GetByLogin(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, "1", byLogin.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, "1"))
	_, err = repo.GetByID(ctx, "1")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(repo.Delete(ctx, "1")))
}
