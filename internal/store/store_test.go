package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, KeyProfile)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyProfile, `{"targets":{"calories":2000}}`))
	v, ok, err := s.Get(ctx, KeyProfile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"targets":{"calories":2000}}`, v)

	// Overwrite, not merge.
	require.NoError(t, s.Set(ctx, KeyProfile, `{}`))
	v, _, _ = s.Get(ctx, KeyProfile)
	assert.Equal(t, `{}`, v)
}

func TestMemoryStoreQuota(t *testing.T) {
	s := NewMemoryStore()
	s.MaxBytes = 10
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "short"))
	err := s.Set(ctx, "k2", "this will not fit")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// The earlier record is untouched.
	v, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "short", v)
}

func TestNamespacedStoreIsolatesChats(t *testing.T) {
	shared := NewMemoryStore()
	ctx := context.Background()

	a := Namespaced(shared, "chat:1:")
	b := Namespaced(shared, "chat:2:")

	require.NoError(t, a.Set(ctx, KeyProfile, `{"a":true}`))
	_, ok, err := b.Get(ctx, KeyProfile)
	require.NoError(t, err)
	assert.False(t, ok, "namespaces must not see each other's records")

	v, ok, err := a.Get(ctx, KeyProfile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":true}`, v)

	// Closing a view leaves the shared store open.
	require.NoError(t, a.Close())
	require.NoError(t, b.Set(ctx, KeyProfile, `{"b":true}`))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, KeyDailySummaries, `{"2026-08-30":{}}`))
	require.NoError(t, s.Set(ctx, KeyDailySummaries, `{"2026-08-30":{"entries_logged":1}}`))

	v, ok, err := s.Get(ctx, KeyDailySummaries)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"2026-08-30":{"entries_logged":1}}`, v)

	_, ok, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
