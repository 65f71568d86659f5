package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	st := NewGormStore(db)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStorageContract(t *testing.T) {
	backends := map[string]func(t *testing.T) Scoper{
		"memory": func(*testing.T) Scoper { return NewMemoryScopes() },
		"gorm":   func(t *testing.T) Scoper { return newGormStore(t) },
	}

	for name, mk := range backends {
		mk := mk
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			scopes := mk(t)
			require.NoError(t, scopes.Ping(ctx))

			st := scopes.Scope("visitor-a")

			_, ok, err := st.GetItem(ctx, "cart")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, st.SetItem(ctx, "cart", `[]`))
			v, ok, err := st.GetItem(ctx, "cart")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[]`, v)

			require.NoError(t, st.SetItem(ctx, "cart", `[{"id":"1"}]`))
			v, _, err = st.GetItem(ctx, "cart")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"1"}]`, v)

			other := scopes.Scope("visitor-b")
			_, ok, err = other.GetItem(ctx, "cart")
			require.NoError(t, err)
			assert.False(t, ok, "visitors must not share keys")

			require.NoError(t, st.RemoveItem(ctx, "cart"))
			_, ok, err = st.GetItem(ctx, "cart")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, st.RemoveItem(ctx, "missing"))
		})
	}
}

func TestMemoryScopesSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	scopes := NewMemoryScopes()
	require.NoError(t, scopes.Scope("old").SetItem(ctx, "cart", `[]`))
	require.NoError(t, scopes.Scope("fresh").SetItem(ctx, "cart", `[]`))
	require.Equal(t, 2, scopes.Len())

	assert.Zero(t, scopes.Sweep(time.Now(), time.Hour))
	assert.Equal(t, 2, scopes.Sweep(time.Now().Add(2*time.Hour), time.Hour))
	assert.Zero(t, scopes.Len())

	_, ok, err := scopes.Scope("old").GetItem(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok, "swept scopes start empty")
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestIsPostgres(t *testing.T) {
	t.Parallel()
	assert.True(t, isPostgres("postgres://u:p@db:5432/shop"))
	assert.True(t, isPostgres("host=db user=u dbname=shop"))
	assert.False(t, isPostgres("storefront.db"))
	assert.False(t, isPostgres(":memory:"))
}
