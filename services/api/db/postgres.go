package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgBackend struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, databaseURL string) (*pgBackend, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}
	return &pgBackend{pool: pool}, nil
}

// NewFromPool wraps an existing pgx pool.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return newStore(&pgBackend{pool: pool}, postgresDialect, nil)
}

func (b *pgBackend) Query(ctx context.Context, sql string, args ...any) (rows, error) {
	r, err := b.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *pgBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *pgBackend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}
