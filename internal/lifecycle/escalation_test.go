package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

func TestCanEscalatePendingInitialDelay(t *testing.T) {
	ticket := pendingTicket()
	t0 := ticket.CreatedAt

	decision := CanEscalate(ticket, t0.Add(PendingPokeInterval-time.Millisecond))
	assert.False(t, decision.Allowed)
	require.NotNil(t, decision.NextEligible)
	assert.Equal(t, t0.Add(PendingPokeInterval), *decision.NextEligible)

	decision = CanEscalate(ticket, t0.Add(PendingPokeInterval))
	assert.True(t, decision.Allowed)
	assert.Nil(t, decision.NextEligible)
}

func TestCanEscalatePendingRecurringInterval(t *testing.T) {
	ticket := pendingTicket()
	poked := ticket.CreatedAt.Add(3 * time.Hour)
	ticket.LastPokeAt = &poked
	ticket.PokeCount = 1

	decision := CanEscalate(ticket, poked.Add(time.Hour))
	assert.False(t, decision.Allowed)
	require.NotNil(t, decision.NextEligible)
	// Later of the two boundaries: the poke one.
	assert.Equal(t, poked.Add(PendingPokeInterval), *decision.NextEligible)

	decision = CanEscalate(ticket, poked.Add(PendingPokeInterval))
	assert.True(t, decision.Allowed)
}

func TestCanEscalatePendingNextEligibleIsLaterBoundary(t *testing.T) {
	// Poked before the initial window elapsed: both boundaries are in the
	// future and the later one (the poke boundary) must be reported.
	ticket := pendingTicket()
	poked := ticket.CreatedAt.Add(30 * time.Minute)
	ticket.LastPokeAt = &poked

	decision := CanEscalate(ticket, ticket.CreatedAt.Add(time.Hour))
	assert.False(t, decision.Allowed)
	require.NotNil(t, decision.NextEligible)
	assert.Equal(t, poked.Add(PendingPokeInterval), *decision.NextEligible)
}

func TestCanEscalateAccepted(t *testing.T) {
	ticket := pendingTicket()
	ticket.Status = domain.TicketStatusAccepted

	decision := CanEscalate(ticket, ticket.CreatedAt.Add(time.Minute))
	assert.True(t, decision.Allowed, "accepted ticket with no prior poke is immediately escalatable")

	poked := ticket.CreatedAt.Add(time.Hour)
	ticket.LastPokeAt = &poked

	decision = CanEscalate(ticket, poked.Add(AcceptedPokeInterval-time.Second))
	assert.False(t, decision.Allowed)
	require.NotNil(t, decision.NextEligible)
	assert.Equal(t, poked.Add(AcceptedPokeInterval), *decision.NextEligible)

	decision = CanEscalate(ticket, poked.Add(AcceptedPokeInterval))
	assert.True(t, decision.Allowed)
}

func TestCanEscalateTerminalStatuses(t *testing.T) {
	for _, status := range []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusRejected} {
		ticket := pendingTicket()
		ticket.Status = status
		decision := CanEscalate(ticket, ticket.CreatedAt.Add(48*time.Hour))
		assert.False(t, decision.Allowed, string(status))
		assert.Nil(t, decision.NextEligible, string(status))
	}
}
