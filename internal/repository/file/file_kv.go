// internal/repository/file/file_kv.go
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"securebank/internal/repository"
	"securebank/internal/util"
)

// KVStore persists each key as <dir>/<key>.json. Writes go to a temp file
// that is renamed over the target, so a crash never leaves a torn value.
type KVStore struct {
	dir string
}

var (
	_ repository.KVStore     = (*KVStore)(nil)
	_ repository.BatchWriter = (*KVStore)(nil)
)

// rename is a seam for testing failed commits.
var rename = os.Rename

// NewKVStore creates the directory if needed and returns a store rooted there.
func NewKVStore(dir string) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &KVStore{dir: dir}, nil
}

func (s *KVStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return b, nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	tmp, err := s.stage(key, value)
	if err != nil {
		return err
	}
	if err := rename(tmp, s.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace key %s: %w", key, err)
	}
	return nil
}

// stage writes value next to the target file and returns the temp path.
func (s *KVStore) stage(key string, value []byte) (string, error) {
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return tmp, nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// WriteBatch applies all sets and deletes or none of them. Every value is
// staged first; if a rename or removal fails part way, keys already
// changed are put back to their previous contents.
func (s *KVStore) WriteBatch(ctx context.Context, sets map[string][]byte, deletes []string) error {
	keys := slices.Sorted(maps.Keys(sets))

	staged := make(map[string]string, len(keys))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()
	for _, k := range keys {
		tmp, err := s.stage(k, sets[k])
		if err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
		staged[k] = tmp
	}

	prev := make(map[string][]byte)
	for _, k := range append(slices.Clone(keys), deletes...) {
		if _, seen := prev[k]; seen {
			continue
		}
		b, err := s.Get(ctx, k)
		switch {
		case err == nil:
			prev[k] = b
		case errors.Is(err, util.ErrNotFound):
			prev[k] = nil
		default:
			return fmt.Errorf("write batch: %w", err)
		}
	}

	var applied []string
	commitErr := func() error {
		for _, k := range keys {
			if err := rename(staged[k], s.path(k)); err != nil {
				return fmt.Errorf("failed to replace key %s: %w", k, err)
			}
			delete(staged, k)
			applied = append(applied, k)
		}
		for _, k := range deletes {
			applied = append(applied, k)
			if err := s.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	}()
	if commitErr == nil {
		return nil
	}

	var restoreErrs []error
	for _, k := range applied {
		var err error
		if old := prev[k]; old != nil {
			err = s.Set(ctx, k, old)
		} else {
			err = s.Delete(ctx, k)
		}
		if err != nil {
			restoreErrs = append(restoreErrs, err)
		}
	}
	if len(restoreErrs) > 0 {
		return fmt.Errorf("write batch: %w", errors.Join(commitErr, fmt.Errorf("failed to restore: %w", errors.Join(restoreErrs...))))
	}
	return fmt.Errorf("write batch: %w", commitErr)
}
