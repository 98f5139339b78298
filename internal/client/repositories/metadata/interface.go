// Package metadata is a string key/value store over the device database's
// metadata table. Higher-level stores (the session) namespace their keys
// with a "name." prefix.
package metadata

import (
	"context"
)

type Repository interface {
	// Get reports ok=false for a missing key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns every pair whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]string, error)
}
