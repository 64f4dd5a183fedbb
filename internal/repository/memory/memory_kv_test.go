// internal/repository/memory/memory_kv_test.go
package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securebank/internal/util"
)

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)

	value := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'X' // the store keeps its own copy

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestKVStore_WriteBatch(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()
	require.NoError(t, s.Set(ctx, "old", []byte("1")))

	require.NoError(t, s.WriteBatch(ctx, map[string][]byte{"a": []byte("2"), "b": []byte("3")}, []string{"old"}))
	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())
}
