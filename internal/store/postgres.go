package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps one row per path with a jsonb value.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// RunMigrations creates the backing table.
func (p *Postgres) RunMigrations(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS nodes (
			path TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (p *Postgres) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var value json.RawMessage
	err := p.pool.QueryRow(ctx,
		"SELECT value FROM nodes WHERE path = $1", path,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, path string, value json.RawMessage) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO nodes (path, value) VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
	`, path, value)
	return err
}

func (p *Postgres) Update(ctx context.Context, path string, value json.RawMessage) error {
	// jsonb || merges top-level keys only, which is the contract.
	_, err := p.pool.Exec(ctx, `
		INSERT INTO nodes (path, value) VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET value = nodes.value || EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
	`, path, value)
	return err
}

func (p *Postgres) Delete(ctx context.Context, path string) error {
	_, err := p.pool.Exec(ctx,
		"DELETE FROM nodes WHERE path = $1 OR path LIKE $2", path, path+"/%")
	return err
}

func (p *Postgres) Swap(ctx context.Context, path string, expected, next json.RawMessage) error {
	switch {
	case expected == nil && next == nil:
		var exists bool
		err := p.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM nodes WHERE path = $1)", path,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		return nil
	case expected == nil:
		_, err := p.pool.Exec(ctx,
			"INSERT INTO nodes (path, value) VALUES ($1, $2)", path, next)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrConflict
			}
			return err
		}
		return nil
	case next == nil:
		result, err := p.pool.Exec(ctx,
			"DELETE FROM nodes WHERE path = $1 AND value = $2::jsonb", path, expected)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrConflict
		}
		return nil
	default:
		result, err := p.pool.Exec(ctx, `
			UPDATE nodes SET value = $3, updated_at = CURRENT_TIMESTAMP
			WHERE path = $1 AND value = $2::jsonb
		`, path, expected, next)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrConflict
		}
		return nil
	}
}

func (p *Postgres) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT path, value FROM nodes WHERE path = $1 OR path LIKE $2", prefix, prefix+"/%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := make(map[string]json.RawMessage)
	for rows.Next() {
		var path string
		var value json.RawMessage
		if err := rows.Scan(&path, &value); err != nil {
			return nil, err
		}
		nodes[path] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}
