package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/infra/store"
	"github.com/uplug/einvoice-bfa-go/internal/port"
)

func sampleSession() domain.Session {
	return domain.Session{
		Token:     "tok-1",
		User:      &domain.UserInfo{Name: "ada", Email: "ada@acme.ng"},
		Onboarded: true,
		BusinessProfile: &domain.BusinessProfile{
			ID:                     "biz-1",
			IndustryClassification: domain.IndustryRetail,
			TIN:                    &domain.TINRecord{ID: "tin-1", TIN: "12345678", BusinessName: "Acme Ltd"},
		},
	}
}

func roundTrip(t *testing.T, p port.SessionPersister) {
	t.Helper()
	ctx := context.Background()

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty backend must load nothing")

	require.NoError(t, p.Save(ctx, sampleSession()))
	got, err = p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleSession(), *got)

	require.NoError(t, p.Save(ctx, domain.Session{}))
	got, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Session{}, *got)
}

func TestMemory_RoundTrip(t *testing.T) {
	m := store.NewMemory()
	roundTrip(t, m)
	assert.Equal(t, 2, m.Saves())
}

func TestFile_RoundTrip(t *testing.T) {
	roundTrip(t, store.NewFile(filepath.Join(t.TempDir(), "nested", "session.json"), ""))
}

func TestFile_PlainIsJSONWithFourFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, store.NewFile(path, "").Save(context.Background(), sampleSession()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, field := range []string{`"token"`, `"user"`, `"onboarded"`, `"businessProfile"`} {
		assert.Contains(t, string(raw), field)
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_SealedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	roundTrip(t, store.NewFile(path, "correct horse"))

	require.NoError(t, store.NewFile(path, "correct horse").Save(context.Background(), sampleSession()))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "tok-1"), "token must not be stored in clear")

	_, err = store.NewFile(path, "wrong").Load(context.Background())
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)

	_, err = store.NewFile(path, "").Load(context.Background())
	assert.Error(t, err)
}

func TestFile_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := store.NewFile(path, "").Load(context.Background())
	assert.Error(t, err)
}

func TestRedis_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := store.NewRedis(client, "uplug-auth")
	require.NoError(t, r.Ping(context.Background()))
	roundTrip(t, r)
	assert.True(t, mr.Exists("uplug-auth"))
}

func TestRedis_LoadError(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := store.NewRedisWithURL("redis://"+mr.Addr()+"/0", "uplug-auth")
	require.NoError(t, err)
	defer r.Close()

	mr.SetError("READONLY")
	_, err = r.Load(context.Background())
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{SessionBackend: "memory"}
	p, err := store.FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, p)

	cfg = &config.Config{SessionBackend: "file", SessionFile: filepath.Join(t.TempDir(), "s.json")}
	p, err = store.FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.File{}, p)

	_, err = store.FromConfig(&config.Config{SessionBackend: "etcd"})
	assert.Error(t, err)
}
