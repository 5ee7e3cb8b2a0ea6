// Package session holds the operator's client-side session: token, user,
// onboarded flag and cached business profile. The Store is the single source
// of truth for route guards and for the bearer token of every API call.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/port"
)

// ErrNoExpiry is returned by TokenExpiry when the token is not a JWT or has no exp claim.
var ErrNoExpiry = errors.New("token carries no expiry")

// Store is a mutex-guarded session. Every mutation is written through to the
// persister with exactly the four persisted fields.
type Store struct {
	mu        sync.RWMutex
	writeMu   sync.Mutex // orders mutate+persist so saves land in mutation order
	state     domain.Session
	epoch     uint64 // advances on SetAuth and Logout
	persister port.SessionPersister
	logger    *zap.Logger

	listeners []func()
}

// NewStore creates an empty store. Call Hydrate to load the persisted session.
func NewStore(persister port.SessionPersister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{persister: persister, logger: logger}
}

// Hydrate replaces the in-memory state with whatever the persister holds.
// An empty backend leaves the store unauthenticated.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	saved, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if saved != nil {
		s.state = *saved
	} else {
		s.state = domain.Session{}
	}
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Epoch identifies the current sign-in. Capture it before a network call
// and pass it to the *At writers so a late result cannot touch a session
// that was replaced or logged out in the meantime.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// SetAuth replaces the whole session at once.
func (s *Store) SetAuth(ctx context.Context, token string, user *domain.UserInfo, onboarded bool, profile *domain.BusinessProfile) error {
	return s.update(ctx, func(st *domain.Session) {
		s.epoch++
		*st = domain.Session{
			Token:           token,
			User:            user,
			Onboarded:       onboarded,
			BusinessProfile: profile,
		}
	})
}

// SetOnboarded changes only the onboarded flag.
func (s *Store) SetOnboarded(ctx context.Context, onboarded bool) error {
	return s.update(ctx, func(st *domain.Session) {
		st.Onboarded = onboarded
	})
}

// SetOnboardedAt is SetOnboarded for the sign-in identified by epoch. It
// returns domain.ErrSessionChanged without writing when the epoch moved.
func (s *Store) SetOnboardedAt(ctx context.Context, epoch uint64, onboarded bool) error {
	return s.updateAt(ctx, epoch, func(st *domain.Session) {
		st.Onboarded = onboarded
	})
}

// SetBusinessProfile caches a freshly created or fetched profile.
func (s *Store) SetBusinessProfile(ctx context.Context, profile *domain.BusinessProfile) error {
	return s.update(ctx, func(st *domain.Session) {
		st.BusinessProfile = profile
	})
}

// SetBusinessProfileAt is SetBusinessProfile guarded by epoch.
func (s *Store) SetBusinessProfileAt(ctx context.Context, epoch uint64, profile *domain.BusinessProfile) error {
	return s.updateAt(ctx, epoch, func(st *domain.Session) {
		st.BusinessProfile = profile
	})
}

// Logout clears every field and notifies OnLogout listeners. Navigating to
// the login view is left to the caller.
func (s *Store) Logout(ctx context.Context) error {
	err := s.update(ctx, func(st *domain.Session) {
		s.epoch++
		*st = domain.Session{}
	})

	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
	return err
}

// OnLogout registers fn to run after every Logout.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// TokenExpiry reads the exp claim of a JWT token without verifying its
// signature. The backend stays the authority on validity.
func (s *Store) TokenExpiry() (time.Time, error) {
	token := s.Token()
	if token == "" {
		return time.Time{}, ErrNoExpiry
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, ErrNoExpiry
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// update applies fn under the lock and persists the result. The in-memory
// state is authoritative: a failed write is reported but not rolled back.
func (s *Store) update(ctx context.Context, fn func(*domain.Session)) error {
	return s.commit(ctx, func(st *domain.Session) error {
		fn(st)
		return nil
	})
}

func (s *Store) updateAt(ctx context.Context, epoch uint64, fn func(*domain.Session)) error {
	return s.commit(ctx, func(st *domain.Session) error {
		if s.epoch != epoch {
			return domain.ErrSessionChanged
		}
		fn(st)
		return nil
	})
}

// commit runs fn with the state locked and persists the result unless fn
// refuses the write.
func (s *Store) commit(ctx context.Context, fn func(*domain.Session) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.state
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
