// internal/repository/kv_store.go
package repository

import "context"

// Keys under which the ledger snapshot is persisted.
const (
	KeyUsers       = "bankUsers"
	KeyCurrentUser = "currentUser"
)

// snapshotKeys is the write order of the snapshot keys.
var snapshotKeys = []string{KeyUsers, KeyCurrentUser}

// KVStore is a key-value blob store. Values are opaque JSON documents.
type KVStore interface {
	// Get returns the value stored under key, or util.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// BatchWriter is implemented by stores that can apply several writes
// atomically. The snapshot repository prefers it when available.
type BatchWriter interface {
	WriteBatch(ctx context.Context, sets map[string][]byte, deletes []string) error
}
