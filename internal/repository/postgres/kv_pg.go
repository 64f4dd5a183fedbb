// internal/repository/postgres/kv_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"securebank/internal/repository"
	"securebank/internal/util"
	"securebank/pkg/db"

	"github.com/jmoiron/sqlx"
)

// KVStore implements repository.KVStore on the kv_store table.
type KVStore struct {
	db         *sqlx.DB
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

var (
	_ repository.KVStore     = (*KVStore)(nil)
	_ repository.BatchWriter = (*KVStore)(nil)
)

// NewKVStore creates a new KVStore using the pkg/db transaction helpers.
func NewKVStore(database *sqlx.DB) *KVStore {
	return &KVStore{
		db:         database,
		beginTx:    db.BeginTx,
		commitTx:   db.CommitTx,
		rollbackTx: db.RollbackTx,
	}
}

const (
	getQuery    = `SELECT value FROM kv_store WHERE key = $1`
	upsertQuery = `INSERT INTO kv_store (key, value, updated_at)
              VALUES ($1, $2, $3)
              ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteQuery = `DELETE FROM kv_store WHERE key = $1`
)

// Get retrieves the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, s.db, key)
}

// Set upserts the value stored under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, s.db, key, value)
}

// Delete removes key if present.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	return del(ctx, s.db, key)
}

// WriteBatch applies all sets and deletes inside one SQL transaction.
func (s *KVStore) WriteBatch(ctx context.Context, sets map[string][]byte, deletes []string) error {
	txController, err := s.beginTx(ctx, s.db)
	if err != nil {
		return fmt.Errorf("write batch: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("write batch: transaction controller does not implement DBExecutor")
	}

	for key, value := range sets {
		if err := set(ctx, txExecutor, key, value); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
	}
	for _, key := range deletes {
		if err := del(ctx, txExecutor, key); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("write batch: failed to commit transaction: %w", err)
	}
	return nil
}

func get(ctx context.Context, q repository.DBExecutor, key string) ([]byte, error) {
	var value []byte
	if err := q.GetContext(ctx, &value, getQuery, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, q repository.DBExecutor, key string, value []byte) error {
	// JSONB is sent as text; lib/pq would encode []byte as bytea.
	if _, err := q.ExecContext(ctx, upsertQuery, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func del(ctx context.Context, q repository.DBExecutor, key string) error {
	if _, err := q.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
