// Package persist provides durable key to blob storage for the resource cache.
// Stores hold opaque bytes and carry no business logic. A missing key is
// reported as ErrNotFound so callers can tell "never saved" from a read failure.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no blob exists for the key.
var ErrNotFound = errors.New("persist: key not found")

// Store loads and saves byte blobs by namespaced key.
// Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}

// Key builds the namespaced key for a cache collection.
func Key(namespace, collection string) string {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = DefaultNamespace
	}
	return fmt.Sprintf("%s:cache:%s", ns, collection)
}

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "deskhub"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Path     string // directory for file, database file for sqlite
	RedisURL string
}

// Open constructs the configured backend. An empty backend selects the file store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendSQLite:
		return NewSQLiteStore(ctx, opts.Path)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
