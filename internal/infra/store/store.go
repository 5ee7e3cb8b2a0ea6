package store

import (
	"fmt"

	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/port"
)

// FromConfig builds the persister selected by SESSION_BACKEND.
func FromConfig(cfg *config.Config) (port.SessionPersister, error) {
	switch cfg.SessionBackend {
	case "", "file":
		return NewFile(cfg.SessionFile, cfg.SessionKey), nil
	case "redis":
		return NewRedisWithURL(cfg.RedisURL, cfg.SessionRedisKey)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
