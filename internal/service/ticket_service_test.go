package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
	"github.com/helpdesk-internal/chamados-service/internal/events"
	"github.com/helpdesk-internal/chamados-service/internal/repository"
	"github.com/helpdesk-internal/chamados-service/internal/sequence"
	apperrors "github.com/helpdesk-internal/chamados-service/pkg/util"
)

// captureDispatcher records events synchronously for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	service    *TicketService
	accounts   *repository.MemoryAccountRepository
	counters   *repository.MemoryCounterStore
	dispatcher *captureDispatcher
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	counters := repository.NewMemoryCounterStore()
	accounts := repository.NewMemoryAccountRepository()
	dispatcher := &captureDispatcher{}

	require.NoError(t, accounts.Create(context.Background(), &domain.Account{
		ID: "3", Login: "alice", Role: domain.RoleFuncionario, ContactEmail: "alice@empresa.com",
	}))

	f := &fixture{
		accounts:   accounts,
		counters:   counters,
		dispatcher: dispatcher,
		now:        time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:  repository.NewMemoryTicketRepository(),
		AccountRepo: accounts,
		Sequencer:   sequence.New(counters, zap.NewNop()),
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	f.service.clock = func() time.Time { return f.now }
	return f
}

func TestCreateTicketMintsSequentialID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.counters.Seed(sequence.KeyTicket, 41)

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{
		Department: domain.DepartmentFiscal,
		Title:      "Impressora parada",
	})
	require.NoError(t, err)

	assert.Equal(t, "42_20260310", ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, f.now, ticket.CreatedAt)
	assert.Nil(t, ticket.AcceptedAt)
	assert.Nil(t, ticket.ResolvedAt)
	assert.Zero(t, ticket.PokeCount)

	created := f.dispatcher.byType(events.EventTicketCreated)
	require.Len(t, created, 1)

	// Counter advanced: the next ticket gets 43.
	next, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFolha})
	require.NoError(t, err)
	assert.Equal(t, "43_20260310", next.ID)
}

func TestCreateTicketValidatesDepartment(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreateTicket(context.Background(), "alice", TicketCreateInput{Department: "juridico"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestAcceptStampsOnceAndEmitsOneEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentContabil})
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Minute)
	deadline := f.now.Add(24 * time.Hour)
	accepted, err := f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{
		Status:      domain.TicketStatusAccepted,
		AcceptNotes: "checking",
		Deadline:    &deadline,
	})
	require.NoError(t, err)
	require.NotNil(t, accepted.AcceptedAt)
	firstStamp := *accepted.AcceptedAt

	acceptedEvents := f.dispatcher.byType(events.EventTicketAccepted)
	require.Len(t, acceptedEvents, 1)
	payload, ok := acceptedEvents[0].Payload.(events.TicketAcceptedPayload)
	require.True(t, ok)
	assert.Equal(t, "alice@empresa.com", payload.OwnerContact)
	assert.Equal(t, "checking", payload.Notes)
	require.NotNil(t, payload.Deadline)

	// Duplicate accept: no-op, same timestamp, no second event.
	f.now = f.now.Add(time.Hour)
	again, err := f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{
		Status:      domain.TicketStatusAccepted,
		AcceptNotes: "different notes",
	})
	require.NoError(t, err)
	require.NotNil(t, again.AcceptedAt)
	assert.Equal(t, firstStamp, *again.AcceptedAt)
	assert.Len(t, f.dispatcher.byType(events.EventTicketAccepted), 1)
}

func TestResolveRequiresNotesAndEmitsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentSocietario})
	require.NoError(t, err)
	_, err = f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{Status: domain.TicketStatusAccepted})
	require.NoError(t, err)

	_, err = f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{Status: domain.TicketStatusResolved})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	resolved, err := f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{
		Status:          domain.TicketStatusResolved,
		ResolutionNotes: "trocado o cabo",
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	// Retry with identical arguments after success: one event total.
	_, err = f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{
		Status:          domain.TicketStatusResolved,
		ResolutionNotes: "trocado o cabo",
	})
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.byType(events.EventTicketResolved), 1)
}

func TestUpdateRejectsUnmodeledTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFiscal})
	require.NoError(t, err)

	_, err = f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{
		Status:          domain.TicketStatusResolved,
		ResolutionNotes: "notes",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestEscalateGateAndCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := &domain.Account{ID: "3", Login: "alice", Role: domain.RoleFuncionario}

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFiscal})
	require.NoError(t, err)

	// Too early: gate closed, next_eligible reported.
	f.now = ticket.CreatedAt.Add(2*time.Hour - time.Millisecond)
	_, err = f.service.Escalate(ctx, actor, ticket.ID)
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, ticket.CreatedAt.Add(2*time.Hour).Format(time.RFC3339), domainErr.Details["next_eligible"])

	// Exactly at the boundary: allowed.
	f.now = ticket.CreatedAt.Add(2 * time.Hour)
	poked, err := f.service.Escalate(ctx, actor, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, poked.PokeCount)
	require.NotNil(t, poked.LastPokeAt)
	assert.Equal(t, f.now, *poked.LastPokeAt)

	// Again immediately: blocked for another 2h while pending.
	_, err = f.service.Escalate(ctx, actor, ticket.ID)
	require.Error(t, err)

	// Accept, then the cadence drops to 1h.
	_, err = f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{Status: domain.TicketStatusAccepted})
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	poked, err = f.service.Escalate(ctx, actor, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, poked.PokeCount)
}

func TestEscalateOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFiscal})
	require.NoError(t, err)

	other := &domain.Account{ID: "9", Login: "bob", Role: domain.RoleFuncionario}
	f.now = ticket.CreatedAt.Add(3 * time.Hour)
	_, err = f.service.Escalate(ctx, other, ticket.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestListTicketsScopedToOwnerShardNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFiscal})
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	_, err = f.service.CreateTicket(ctx, "bob", TicketCreateInput{Department: domain.DepartmentFolha})
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	second, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentContabil})
	require.NoError(t, err)

	tickets, err := f.service.ListTickets(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, second.ID, tickets[0].ID)
	assert.Equal(t, first.ID, tickets[1].ID)

	all, err := f.service.ListTickets(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTransitionNotificationSkippedForOrphanedOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFiscal})
	require.NoError(t, err)

	// Owner account deleted: ticket stays readable, accept succeeds,
	// but there is nobody to notify.
	require.NoError(t, f.accounts.Delete(ctx, "3"))

	accepted, err := f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{Status: domain.TicketStatusAccepted})
	require.NoError(t, err)
	require.NotNil(t, accepted.AcceptedAt)
	assert.Empty(t, f.dispatcher.byType(events.EventTicketAccepted))

	got, err := f.service.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
}

func TestReopenTerminalTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "alice", TicketCreateInput{Department: domain.DepartmentFiscal})
	require.NoError(t, err)

	_, err = f.service.Reopen(ctx, ticket.ID)
	require.Error(t, err, "pending tickets cannot be reopened")

	_, err = f.service.UpdateTicket(ctx, ticket.ID, TicketPatch{Status: domain.TicketStatusRejected})
	require.NoError(t, err)

	reopened, err := f.service.Reopen(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, reopened.Status)
}

func TestGetTicketNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.GetTicket(context.Background(), "999_20260310")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
