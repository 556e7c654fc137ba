// Package file implements repository interfaces on a local JSON file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/repository"
)

// KVRepo keeps all keys in one JSON object on disk.
type KVRepo struct {
	path string
	mu   sync.Mutex
}

var _ repository.KVRepository = (*KVRepo)(nil)

// NewKVRepo returns a repository persisting to path. The file is created on first Set.
func NewKVRepo(path string) *KVRepo { return &KVRepo{path: path} }

func (r *KVRepo) load() (map[string]string, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	m := map[string]string{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return m, nil
}

func (r *KVRepo) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Get returns the value for key.
func (r *KVRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, err := r.load()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, errs.ErrNotFound)
	}
	return v, nil
}

// Set stores value under key.
func (r *KVRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, err := r.load()
	if err != nil {
		return err
	}
	m[key] = value
	return r.save(m)
}

// Delete removes key.
func (r *KVRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return r.save(m)
}
