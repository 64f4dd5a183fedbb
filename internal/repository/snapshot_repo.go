// internal/repository/snapshot_repo.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"securebank/internal/domain"
	"securebank/internal/util"
)

// SnapshotRepository loads and saves the whole ledger state.
type SnapshotRepository interface {
	// Load returns the persisted snapshot, or an empty one if nothing is stored.
	Load(ctx context.Context) (*domain.Snapshot, error)
	// Save overwrites the persisted snapshot. A nil CurrentUser removes the session key.
	Save(ctx context.Context, snap domain.Snapshot) error
}

// kvSnapshotRepository implements SnapshotRepository on top of a KVStore.
type kvSnapshotRepository struct {
	kv KVStore
}

// NewSnapshotRepository creates a SnapshotRepository backed by kv.
func NewSnapshotRepository(kv KVStore) SnapshotRepository {
	return &kvSnapshotRepository{kv: kv}
}

// Load reads the users collection and the session user.
func (r *kvSnapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{Users: []domain.User{}}

	raw, err := r.kv.Get(ctx, KeyUsers)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &snap.Users); err != nil {
			return nil, fmt.Errorf("load snapshot: failed to decode %s: %w", KeyUsers, err)
		}
	case util.IsError(err, util.ErrNotFound):
	default:
		return nil, fmt.Errorf("load snapshot: failed to read %s: %w", KeyUsers, err)
	}

	raw, err = r.kv.Get(ctx, KeyCurrentUser)
	switch {
	case err == nil:
		var current domain.User
		if err := json.Unmarshal(raw, &current); err != nil {
			return nil, fmt.Errorf("load snapshot: failed to decode %s: %w", KeyCurrentUser, err)
		}
		snap.CurrentUser = &current
	case util.IsError(err, util.ErrNotFound):
	default:
		return nil, fmt.Errorf("load snapshot: failed to read %s: %w", KeyCurrentUser, err)
	}

	return snap, nil
}

// Save writes the users collection and either writes or deletes the session key.
func (r *kvSnapshotRepository) Save(ctx context.Context, snap domain.Snapshot) error {
	users := snap.Users
	if users == nil {
		users = []domain.User{}
	}
	usersRaw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("save snapshot: failed to encode %s: %w", KeyUsers, err)
	}

	sets := map[string][]byte{KeyUsers: usersRaw}
	var deletes []string
	if snap.CurrentUser != nil {
		currentRaw, err := json.Marshal(snap.CurrentUser)
		if err != nil {
			return fmt.Errorf("save snapshot: failed to encode %s: %w", KeyCurrentUser, err)
		}
		sets[KeyCurrentUser] = currentRaw
	} else {
		deletes = append(deletes, KeyCurrentUser)
	}

	if bw, ok := r.kv.(BatchWriter); ok {
		if err := bw.WriteBatch(ctx, sets, deletes); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	}

	// Without batch support the keys are written one by one. If a later
	// write fails, the keys are put back to what they held before.
	prev, err := r.readKeys(ctx)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := r.writeKeys(ctx, sets, deletes); err != nil {
		if rerr := r.writeKeys(ctx, prev, absentKeys(prev)); rerr != nil {
			return fmt.Errorf("save snapshot: %w", errors.Join(err, fmt.Errorf("failed to restore previous snapshot: %w", rerr)))
		}
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// readKeys returns the stored value of every snapshot key that exists.
func (r *kvSnapshotRepository) readKeys(ctx context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte, len(snapshotKeys))
	for _, key := range snapshotKeys {
		raw, err := r.kv.Get(ctx, key)
		switch {
		case err == nil:
			out[key] = raw
		case util.IsError(err, util.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
	}
	return out, nil
}

func (r *kvSnapshotRepository) writeKeys(ctx context.Context, sets map[string][]byte, deletes []string) error {
	for _, key := range snapshotKeys {
		value, ok := sets[key]
		if !ok {
			continue
		}
		if err := r.kv.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	for _, key := range deletes {
		if err := r.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// absentKeys lists the snapshot keys missing from present.
func absentKeys(present map[string][]byte) []string {
	var out []string
	for _, key := range snapshotKeys {
		if _, ok := present[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}
