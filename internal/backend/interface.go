package backend

import (
	"context"
	"time"

	"moneygr/internal/inout"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// PingFunc reports whether the backend can serve requests.
type PingFunc func(ctx context.Context) error

// Result is a ready backend plus its lifecycle hooks. Ping and Cleanup are
// never nil.
type Result struct {
	Store   inout.Store
	Ping    PingFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// sqlite
	SQLiteDBPath string

	// remote
	InoutURI     string
	InoutTimeout time.Duration

	// memory
	DataDirectory string

	// DefaultUser is registered as a member so listings can name it.
	DefaultUser string
}

// Type names a backend implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	RemoteBackend Type = "remote"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
