package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/quickcart/internal/session/domain"
	"github.com/dwikikusuma/quickcart/pkg/kvstore"
)

func TestOpenGeneratesAndPersistsOnce(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	p, err := Open(ctx, store)
	require.NoError(t, err)
	_, err = uuid.Parse(p.ID())
	require.NoError(t, err, "session id must be a UUID")

	stored, ok, err := store.Get(ctx, domain.KeySessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.ID(), stored)
}

func TestSessionIDSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")

	store, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	first, err := Open(ctx, store)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// simulated reload: fresh store handle, fresh provider
	store, err = kvstore.OpenFile(path)
	require.NoError(t, err)
	second, err := Open(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
}

func TestMarkLoggedIn(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	p, err := Open(ctx, store)
	require.NoError(t, err)

	assert.ErrorIs(t, p.MarkLoggedIn(ctx, "  "), ErrInvalidUsername)

	require.NoError(t, p.MarkLoggedIn(ctx, "ana"))
	st := p.State()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "ana", st.Username)

	reloaded, err := Open(ctx, store)
	require.NoError(t, err)
	assert.True(t, reloaded.Authenticated())
	assert.Equal(t, "ana", reloaded.State().Username)
}

func TestLogoutClearsEverythingTogether(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, "cookies", "JSESSIONID=x"))

	p, err := Open(ctx, store, WithClearedKeys("cookies"))
	require.NoError(t, err)
	require.NoError(t, p.MarkLoggedIn(ctx, "ana"))
	before := p.ID()

	require.NoError(t, p.Logout(ctx))
	assert.Equal(t, before, p.ID(), "no rotation while running")
	assert.False(t, p.Authenticated())

	for _, k := range []string{domain.KeySessionID, domain.KeyAuthenticated, domain.KeyUsername, "cookies"} {
		_, ok, err := store.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be cleared", k)
	}

	next, err := Open(ctx, store)
	require.NoError(t, err)
	assert.NotEqual(t, before, next.ID(), "next load starts a new session")
}

func TestForceLogoutKeepsSessionID(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, "cookies", "JSESSIONID=x"))

	p, err := Open(ctx, store, WithClearedKeys("cookies"))
	require.NoError(t, err)
	require.NoError(t, p.MarkLoggedIn(ctx, "ana"))
	before := p.ID()

	require.NoError(t, p.ForceLogout(ctx))
	assert.False(t, p.Authenticated())
	assert.Empty(t, p.State().Username)

	_, ok, err := store.Get(ctx, "cookies")
	require.NoError(t, err)
	assert.False(t, ok)

	next, err := Open(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, before, next.ID(), "forced logout must not clear the session id")
	assert.False(t, next.Authenticated())
}
