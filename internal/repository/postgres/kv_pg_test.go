// internal/repository/postgres/kv_pg_test.go
package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securebank/internal/util"
	"securebank/pkg/db"
)

// newTestStore connects to TEST_DATABASE_DSN or skips.
func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()
	database, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(ctx, database.DB))
	_, err = database.ExecContext(ctx, "TRUNCATE TABLE kv_store")
	require.NoError(t, err, "Failed to truncate kv_store")

	return NewKVStore(database)
}

func TestKVStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "bankUsers")
	assert.ErrorIs(t, err, util.ErrNotFound)

	require.NoError(t, s.Set(ctx, "bankUsers", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "bankUsers", []byte(`[{"id": "1"}]`)))

	got, err := s.Get(ctx, "bankUsers")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, s.Delete(ctx, "bankUsers"))
	require.NoError(t, s.Delete(ctx, "bankUsers"))
	_, err = s.Get(ctx, "bankUsers")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestKVStore_WriteBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Set(ctx, "currentUser", []byte(`{"id":"1"}`)))

	err := s.WriteBatch(ctx, map[string][]byte{"bankUsers": []byte(`[]`)}, []string{"currentUser"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "bankUsers")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
	_, err = s.Get(ctx, "currentUser")
	assert.ErrorIs(t, err, util.ErrNotFound)
}
