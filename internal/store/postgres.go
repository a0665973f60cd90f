package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry is the SQL-backed alternative to the file registry
// snapshot, for deployments that already run PostgreSQL.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry connects a pool and initializes the schema.
func NewPostgresRegistry(ctx context.Context, databaseURL string) (*PostgresRegistry, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	r := &PostgresRegistry{pool: pool}
	if err := r.initSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRegistry) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS groups (
		name TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS group_members (
		group_name TEXT NOT NULL REFERENCES groups(name),
		username TEXT NOT NULL,
		PRIMARY KEY (group_name, username)
	);
	`
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Close closes the connection pool.
func (r *PostgresRegistry) Close() {
	r.pool.Close()
}

// Ping checks the database connection.
func (r *PostgresRegistry) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Load reads the full registry state.
func (r *PostgresRegistry) Load(ctx context.Context) (RegistrySnapshot, error) {
	snap := RegistrySnapshot{Groups: make(map[string][]string)}

	rows, err := r.pool.Query(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return snap, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return snap, err
		}
		snap.Users = append(snap.Users, u)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	grows, err := r.pool.Query(ctx, `
		SELECT g.name, m.username
		FROM groups g
		LEFT JOIN group_members m ON m.group_name = g.name
		ORDER BY g.name, m.username
	`)
	if err != nil {
		return snap, fmt.Errorf("load groups: %w", err)
	}
	defer grows.Close()
	for grows.Next() {
		var name string
		var member *string
		if err := grows.Scan(&name, &member); err != nil {
			return snap, err
		}
		if _, ok := snap.Groups[name]; !ok {
			snap.Groups[name] = []string{}
		}
		if member != nil {
			snap.Groups[name] = append(snap.Groups[name], *member)
		}
	}
	return snap, grows.Err()
}

// SaveUsers upserts the snapshot. Users are never deleted, so the
// snapshot only grows and an insert-if-absent per name is equivalent to
// a full rewrite.
func (r *PostgresRegistry) SaveUsers(ctx context.Context, users []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, u := range users {
			if _, err := tx.Exec(ctx, `
				INSERT INTO users (username) VALUES ($1)
				ON CONFLICT (username) DO NOTHING
			`, u); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveGroups replaces the membership state in one transaction.
func (r *PostgresRegistry) SaveGroups(ctx context.Context, groups map[string][]string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM group_members`); err != nil {
			return err
		}
		for name, members := range groups {
			if _, err := tx.Exec(ctx, `
				INSERT INTO groups (name) VALUES ($1)
				ON CONFLICT (name) DO NOTHING
			`, name); err != nil {
				return err
			}
			for _, m := range members {
				if _, err := tx.Exec(ctx, `
					INSERT INTO group_members (group_name, username) VALUES ($1, $2)
					ON CONFLICT DO NOTHING
				`, name, m); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
