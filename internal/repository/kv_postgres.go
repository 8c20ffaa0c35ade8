package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgKVSchema = `
	CREATE TABLE IF NOT EXISTS chat_kv (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type pgConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgKV guarda las claves en la tabla chat_kv.
type PgKV struct {
	pool pgConn
}

func NewPgKV(pool *pgxpool.Pool) *PgKV {
	return &PgKV{pool: pool}
}

// EnsureSchema crea la tabla si no existe.
func (r *PgKV) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, pgKVSchema)
	return err
}

func (r *PgKV) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `
		SELECT value
		FROM chat_kv
		WHERE key = $1
	`

	var value []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *PgKV) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO chat_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}

func (r *PgKV) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM chat_kv WHERE key = $1`
	_, err := r.pool.Exec(ctx, query, key)
	return err
}
