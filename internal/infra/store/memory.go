// Package store implements session persistence backends: an in-memory
// persister for tests and ephemeral runs, a JSON file (optionally sealed with
// a passphrase) and a Redis key.
package store

import (
	"context"
	"sync"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// Memory keeps the session in process memory.
type Memory struct {
	mu    sync.Mutex
	saved *domain.Session
	saves int
}

// NewMemory creates an empty memory persister.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saved == nil {
		return nil, nil
	}
	s := *m.saved
	return &s, nil
}

func (m *Memory) Save(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saved = &s
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
