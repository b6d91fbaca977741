package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/helpdesk-internal/chamados-service/internal/domain"
)

// ErrVersionConflict is returned when a Put loses the compare-and-swap
// race against a concurrent update.
var ErrVersionConflict = errors.New("ticket was modified concurrently")

// TicketRepository encapsulates ticket persistence. Put is a
// whole-record overwrite: callers supply the complete post-update
// record. List returns records newest-first, scoped to the owner's
// shard when an owner is given. Tickets are never deleted.
type TicketRepository interface {
	Put(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, owner string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool, logger *zap.Logger) TicketRepository {
	return &ticketRepository{pool: pool, logger: logger}
}

const ticketColumns = `
        id, owner_login, owner_shard, department, title, description, status,
        priority, is_task, attachments, accept_notes, resolution_notes, deadline,
        created_at, accepted_at, resolved_at, last_poke_at, poke_count, version`

func (r *ticketRepository) Put(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.Version == 0 {
		return r.insert(ctx, ticket)
	}
	return r.updateCAS(ctx, ticket)
}

func (r *ticketRepository) insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, owner_login, owner_shard, department, title, description, status,
            priority, is_task, attachments, accept_notes, resolution_notes, deadline,
            created_at, accepted_at, resolved_at, last_poke_at, poke_count, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,1)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Owner,
		ShardKey(ticket.Owner),
		ticket.Department,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.IsTask,
		ticket.Attachments,
		ticket.AcceptNotes,
		ticket.ResolutionNotes,
		ticket.Deadline,
		ticket.CreatedAt,
		ticket.AcceptedAt,
		ticket.ResolvedAt,
		ticket.LastPokeAt,
		ticket.PokeCount,
	)
	if err != nil {
		return err
	}
	ticket.Version = 1
	return nil
}

func (r *ticketRepository) updateCAS(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET department=$1, title=$2, description=$3, status=$4, priority=$5,
            is_task=$6, attachments=$7, accept_notes=$8, resolution_notes=$9, deadline=$10,
            accepted_at=$11, resolved_at=$12, last_poke_at=$13, poke_count=$14,
            version=version+1
        WHERE id=$15 AND version=$16`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Department,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.IsTask,
		ticket.Attachments,
		ticket.AcceptNotes,
		ticket.ResolutionNotes,
		ticket.Deadline,
		ticket.AcceptedAt,
		ticket.ResolvedAt,
		ticket.LastPokeAt,
		ticket.PokeCount,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var (
		ticket domain.Ticket
		shard  string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Owner,
		&shard,
		&ticket.Department,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.IsTask,
		&ticket.Attachments,
		&ticket.AcceptNotes,
		&ticket.ResolutionNotes,
		&ticket.Deadline,
		&ticket.CreatedAt,
		&ticket.AcceptedAt,
		&ticket.ResolvedAt,
		&ticket.LastPokeAt,
		&ticket.PokeCount,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, owner string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	args := []any{}
	if owner != "" {
		query = `SELECT ` + ticketColumns + ` FROM tickets WHERE owner_shard=$1 ORDER BY created_at DESC`
		args = append(args, ShardKey(owner))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket domain.Ticket
			shard  string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Owner,
			&shard,
			&ticket.Department,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.IsTask,
			&ticket.Attachments,
			&ticket.AcceptNotes,
			&ticket.ResolutionNotes,
			&ticket.Deadline,
			&ticket.CreatedAt,
			&ticket.AcceptedAt,
			&ticket.ResolvedAt,
			&ticket.LastPokeAt,
			&ticket.PokeCount,
			&ticket.Version,
		); err != nil {
			// A malformed record must not fail the whole listing.
			r.logger.Warn("skipping unreadable ticket row", zap.Error(err))
			continue
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// IsNotFound reports whether the error means the record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
