package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T, opts ...store.Option) *store.BunStore {
	t.Helper()
	s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tokens.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoresContract(t *testing.T) {
	stores := map[string]func(t *testing.T) portal.TokenStore{
		"memory": func(t *testing.T) portal.TokenStore {
			return store.NewMemoryStore()
		},
		"file": func(t *testing.T) portal.TokenStore {
			return store.NewFileStore(filepath.Join(t.TempDir(), "campus", "session.json"))
		},
		"sqlite": func(t *testing.T) portal.TokenStore {
			return newSQLiteStore(t)
		},
	}

	for name, factory := range stores {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			token, ok := s.Read()
			assert.False(t, ok)
			assert.Empty(t, token)

			require.NoError(t, s.Write("T1"))
			token, ok = s.Read()
			assert.True(t, ok)
			assert.Equal(t, "T1", token)

			require.NoError(t, s.Write("T2"))
			token, ok = s.Read()
			assert.True(t, ok)
			assert.Equal(t, "T2", token)

			require.NoError(t, s.Clear())
			_, ok = s.Read()
			assert.False(t, ok)

			assert.NoError(t, s.Clear(), "clearing an empty store is not an error")
		})
	}
}

func TestMemoryStoreSeeded(t *testing.T) {
	s := store.NewMemoryStore("seed")
	token, ok := s.Read()
	assert.True(t, ok)
	assert.Equal(t, "seed", token)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	first := store.NewFileStore(path)
	require.NoError(t, first.Write("persisted"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second := store.NewFileStore(path)
	token, ok := second.Read()
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)

	require.NoError(t, second.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	a := store.NewFileStore(path, store.WithKey("a"))
	b := store.NewFileStore(path, store.WithKey("b"))

	require.NoError(t, a.Write("token-a"))
	require.NoError(t, b.Write("token-b"))
	require.NoError(t, a.Clear())

	_, ok := a.Read()
	assert.False(t, ok)

	token, ok := b.Read()
	assert.True(t, ok)
	assert.Equal(t, "token-b", token)
}

func TestFileStoreCorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := store.NewFileStore(path)
	_, ok := s.Read()
	assert.False(t, ok)

	require.NoError(t, s.Write("fresh"))
	token, ok := s.Read()
	assert.True(t, ok)
	assert.Equal(t, "fresh", token)
}

func TestBunStoreStampsUpdatedAt(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newSQLiteStore(t,
		store.WithKey("stamped"),
		store.WithClock(func() time.Time { return stamp }),
	)

	require.NoError(t, s.Write("abc"))

	var model store.TokenModel
	err := s.DB().NewSelect().
		Model(&model).
		Where("name = ?", "stamped").
		Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc", model.Token)
	assert.True(t, stamp.Equal(model.UpdatedAt))
}
