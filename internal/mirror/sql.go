package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	Create string
	Select string
	Upsert string
}

var (
	SQLite = Dialect{
		Name: "sqlite",
		Create: `CREATE TABLE IF NOT EXISTS mirror_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		Select: `SELECT value FROM mirror_entries WHERE key = ?`,
		Upsert: `INSERT INTO mirror_entries (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	}

	Postgres = Dialect{
		Name: "postgres",
		Create: `CREATE TABLE IF NOT EXISTS mirror_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		Select: `SELECT value FROM mirror_entries WHERE key = $1`,
		Upsert: `INSERT INTO mirror_entries (key, value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	}
)

// SQL is a mirror kept in a single key/value table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL creates the table if needed.
func NewSQL(ctx context.Context, db *sql.DB, dialect Dialect) (*SQL, error) {
	if _, err := db.ExecContext(ctx, dialect.Create); err != nil {
		return nil, fmt.Errorf("create %s mirror table: %w", dialect.Name, err)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.Select, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read mirror key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("write mirror key %q: %w", key, err)
	}
	return nil
}
