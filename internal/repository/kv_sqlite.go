package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const sqliteKVSchema = `
	CREATE TABLE IF NOT EXISTS chat_kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
`

// SQLiteKV guarda las claves en una base SQLite local.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV crea la tabla si hace falta. db debe venir de db.OpenSQLite.
func NewSQLiteKV(ctx context.Context, db *sql.DB) (*SQLiteKV, error) {
	if _, err := db.ExecContext(ctx, sqliteKVSchema); err != nil {
		return nil, fmt.Errorf("create chat_kv: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

func (r *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM chat_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO chat_kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}

func (r *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_kv WHERE key = ?`, key)
	return err
}
