package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CounterRepository persists named monotonic counters in the
// sequence_counters table. The upsert-increment is a single statement,
// so the returned value is atomic even across processes.
type CounterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository returns a Postgres-backed counter store.
func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

func (r *CounterRepository) Increment(ctx context.Context, key string) (int64, error) {
	const query = `
        INSERT INTO sequence_counters (name, last_value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET last_value = sequence_counters.last_value + 1, updated_at = NOW()
        RETURNING last_value`
	var value int64
	if err := r.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
