package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jask/jaskmeme/internal/database"
)

// KVRepo handles the kv table: one serialized value per fixed key.
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo { return &KVRepo{db: db} }

// Get returns the entry for key, or nil when the key has never been written.
func (r *KVRepo) Get(ctx context.Context, key string) (*KVEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, value, updated_at FROM kv WHERE key = ?`, key)
	var e KVEntry
	if err := row.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Put replaces the whole value stored under key.
func (r *KVRepo) Put(ctx context.Context, key, value string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
		`, key, value, database.Now())
		return err
	})
}
