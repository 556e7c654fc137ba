// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// KVRepository keeps small string values under fixed keys, e.g. the
// last-connected wallet address.
type KVRepository interface {
	// Get returns the value stored under key, or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
