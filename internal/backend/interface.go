package backend

import (
	"context"

	"nickel/internal/items"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is a ready item store plus its cleanup.
type BackendResult struct {
	Store   items.Store
	Pinger  Pinger // nil when the backend has nothing to probe
	Cleanup CleanupFunc
}

// Pinger is implemented by backends with a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates item store backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	RedisURL       string
	RedisKeyPrefix string
}

// BackendType names an item store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt names a known backend.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, RedisBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
