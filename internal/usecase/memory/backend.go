package memory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
)

// Backend identifies the active memory implementation.
type Backend int

const (
	// BackendInMemory is the transient in-process log.
	BackendInMemory Backend = iota
	// BackendRedis is the durable Redis/Valkey log.
	BackendRedis
)

// String returns the label exposed to clients and metrics.
func (b Backend) String() string {
	switch b {
	case BackendInMemory:
		return "in_memory"
	case BackendRedis:
		return "redis"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// ParseBackend maps a configuration value to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "in_memory", "memory":
		return BackendInMemory, nil
	case "redis", "valkey":
		return BackendRedis, nil
	default:
		return 0, fmt.Errorf("unknown memory backend %q: %w", s, domain.ErrInvalidRequest)
	}
}

// Deps holds what the durable backends need.
type Deps struct {
	History HistoryStore
	Logger  *zap.Logger
}

// Resolved is the memory instance chosen at startup plus its label.
type Resolved struct {
	Memory  Memory
	Backend Backend
}

// Resolve builds the memory implementation for backend.
func Resolve(backend Backend, deps Deps) (Resolved, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch backend {
	case BackendInMemory:
		return Resolved{Memory: NewTransient(), Backend: backend}, nil
	case BackendRedis:
		if deps.History == nil {
			return Resolved{}, fmt.Errorf("memory backend %s requires a history store: %w", backend, domain.ErrInvalidRequest)
		}
		return Resolved{Memory: NewDurable(deps.History, backend, logger), Backend: backend}, nil
	default:
		return Resolved{}, fmt.Errorf("unknown memory backend %s: %w", backend, domain.ErrInvalidRequest)
	}
}
