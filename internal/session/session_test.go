package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/infra/store"
	"github.com/uplug/einvoice-bfa-go/internal/session"
)

type failingPersister struct{ store.Memory }

func (f *failingPersister) Save(context.Context, domain.Session) error {
	return errors.New("disk full")
}

func profile() *domain.BusinessProfile {
	return &domain.BusinessProfile{ID: "biz-1", ErpSolution: domain.ErpSAP}
}

func TestSetAuth_PersistsAllFields(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := session.NewStore(mem, nil)

	user := &domain.UserInfo{Name: "ada", Email: "ada@acme.ng"}
	require.NoError(t, s.SetAuth(ctx, "T", user, true, profile()))

	saved, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Session{Token: "T", User: user, Onboarded: true, BusinessProfile: profile()}, *saved)
	assert.Equal(t, *saved, s.Snapshot())
}

func TestSetAuth_ReplacesWholeState(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(store.NewMemory(), nil)

	require.NoError(t, s.SetAuth(ctx, "A", &domain.UserInfo{Name: "a"}, true, profile()))
	require.NoError(t, s.SetAuth(ctx, "B", &domain.UserInfo{Name: "b"}, false, nil))

	snap := s.Snapshot()
	assert.Equal(t, "B", snap.Token)
	assert.False(t, snap.Onboarded)
	assert.Nil(t, snap.BusinessProfile, "old profile must not leak into the new session")
}

func TestHydrate_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	first := session.NewStore(mem, nil)
	user := &domain.UserInfo{Name: "ada", Email: "ada@acme.ng"}
	require.NoError(t, first.SetAuth(ctx, "T", user, true, profile()))

	second := session.NewStore(mem, nil)
	require.NoError(t, second.Hydrate(ctx))
	assert.Equal(t, first.Snapshot(), second.Snapshot())
	assert.Equal(t, "T", second.Token())
}

func TestHydrate_EmptyBackend(t *testing.T) {
	s := session.NewStore(store.NewMemory(), nil)
	require.NoError(t, s.Hydrate(context.Background()))
	assert.False(t, s.Snapshot().Authenticated())
}

func TestLogout_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := session.NewStore(mem, nil)

	require.NoError(t, s.SetAuth(ctx, "T", &domain.UserInfo{Name: "ada"}, true, profile()))

	notified := 0
	s.OnLogout(func() { notified++ })
	require.NoError(t, s.Logout(ctx))

	want := domain.Session{Token: "", User: nil, Onboarded: false, BusinessProfile: nil}
	assert.Equal(t, want, s.Snapshot())
	saved, _ := mem.Load(ctx)
	assert.Equal(t, want, *saved)
	assert.Equal(t, 1, notified)
}

func TestSetOnboarded_TouchesOnlyFlag(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(store.NewMemory(), nil)
	require.NoError(t, s.SetAuth(ctx, "T", &domain.UserInfo{Name: "ada"}, false, nil))

	require.NoError(t, s.SetOnboarded(ctx, true))
	snap := s.Snapshot()
	assert.True(t, snap.Onboarded)
	assert.Equal(t, "T", snap.Token)
	assert.Equal(t, "ada", snap.User.Name)
}

func TestSetOnboardedAt_AfterLogoutIsDropped(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := session.NewStore(mem, nil)
	require.NoError(t, s.SetAuth(ctx, "T", &domain.UserInfo{Name: "ada"}, false, nil))
	epoch := s.Epoch()

	require.NoError(t, s.Logout(ctx))
	saves := mem.Saves()

	err := s.SetOnboardedAt(ctx, epoch, true)
	assert.ErrorIs(t, err, domain.ErrSessionChanged)
	assert.ErrorIs(t, s.SetBusinessProfileAt(ctx, epoch, profile()), domain.ErrSessionChanged)
	assert.Equal(t, domain.Session{}, s.Snapshot())
	assert.Equal(t, saves, mem.Saves(), "nothing persisted")
}

func TestSetOnboardedAt_SameSignIn(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(store.NewMemory(), nil)
	require.NoError(t, s.SetAuth(ctx, "T", &domain.UserInfo{Name: "ada"}, false, nil))
	epoch := s.Epoch()

	require.NoError(t, s.SetOnboarded(ctx, false))
	require.NoError(t, s.SetOnboardedAt(ctx, epoch, true))
	assert.True(t, s.Snapshot().Onboarded)

	require.NoError(t, s.SetAuth(ctx, "T2", &domain.UserInfo{Name: "bob"}, false, nil))
	assert.NotEqual(t, epoch, s.Epoch())
}

func TestUpdate_PersistFailureReported(t *testing.T) {
	s := session.NewStore(&failingPersister{}, nil)
	err := s.SetOnboarded(context.Background(), true)
	assert.Error(t, err)
	assert.True(t, s.Snapshot().Onboarded)
}

func TestConcurrentMutations_LastWriteWinsInStorage(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := session.NewStore(mem, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SetOnboarded(ctx, i%2 == 0)
		}(i)
	}
	wg.Wait()

	saved, _ := mem.Load(ctx)
	assert.Equal(t, s.Snapshot(), *saved)
	assert.Equal(t, 50, mem.Saves())
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(nil, nil)

	_, err := s.TokenExpiry()
	assert.ErrorIs(t, err, session.ErrNoExpiry)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ada@acme.ng",
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	require.NoError(t, s.SetAuth(ctx, signed, nil, false, nil))
	got, err := s.TokenExpiry()
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	require.NoError(t, s.SetAuth(ctx, "opaque-token", nil, false, nil))
	_, err = s.TokenExpiry()
	assert.ErrorIs(t, err, session.ErrNoExpiry)
}
