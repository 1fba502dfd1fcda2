package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/throwmail/internal/model"
)

// storeSuite runs the Store contract against a backend.
func storeSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("empty load", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		s := newStore(t)
		acct := model.Account{
			ID:       "acc1",
			Address:  "brightfox421@mailtm.example",
			Password: "password123",
			Token:    "tok-1",
		}
		require.NoError(t, s.Save(context.Background(), acct))

		got, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, acct, *got)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, model.Account{ID: "a", Address: "a@x.test", Token: "t1"}))
		require.NoError(t, s.Save(ctx, model.Account{ID: "b", Address: "b@x.test", Token: "t2"}))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b@x.test", got.Address)
		assert.Equal(t, "t2", got.Token)
	})

	t.Run("clear", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, model.Account{ID: "a", Address: "a@x.test", Token: "t1"}))
		require.NoError(t, s.Clear(ctx))

		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, s.Clear(ctx), "clearing an empty store")
	})
}

func TestKeyringStore(t *testing.T) {
	storeSuite(t, func(t *testing.T) Store {
		return NewKeyringStoreWith(keyring.NewArrayKeyring(nil))
	})
}

func TestSQLiteStoreMemory(t *testing.T) {
	storeSuite(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "throwmail.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, model.Account{ID: "a", Address: "a@x.test", Token: "t1"}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err, "migrations must be idempotent")
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.test", got.Address)
}

func TestKeyringStoreRejectsCorruptRecord(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: AccountKey, Data: []byte("{not json")},
	})
	s := NewKeyringStoreWith(ring)

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpenSQLiteBackend(t *testing.T) {
	s, closeFn, err := Open(model.SessionConfig{
		Store:  model.StoreSQLite,
		DBPath: filepath.Join(t.TempDir(), "tm.db"),
	})
	require.NoError(t, err)
	defer closeFn()

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, _, err := Open(model.SessionConfig{Store: "etcd"})
	assert.Error(t, err)
}
