package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
)

type sqlBackend struct {
	db *sql.DB
}

func openSQLServer(ctx context.Context, databaseURL string) (*sqlBackend, error) {
	db, err := sql.Open(DriverSQLServer, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}
	return &sqlBackend{db: db}, nil
}

// sqlRows adapts *sql.Rows to the shared cursor shape.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }

func (b *sqlBackend) Query(ctx context.Context, query string, args ...any) (rows, error) {
	r, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{r}, nil
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close() {
	if b.db != nil {
		b.db.Close()
	}
}
