package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "k", "v", time.Hour))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "short", "v", time.Minute))
	require.NoError(t, s.Put(ctx, "long", "v", 7*24*time.Hour))

	now = now.Add(2 * time.Minute)

	_, ok, _ := s.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "a", "1", time.Minute))
	require.NoError(t, s.Put(ctx, "b", "2", time.Minute))
	require.NoError(t, s.Put(ctx, "c", "3", time.Hour))

	now = now.Add(5 * time.Minute)
	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"c"}, s.Keys())
}

func TestMemoryStoreGetKeepsConcurrentPut(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "rate_limit_ip_a@acme.com", "old", time.Minute))
	now = now.Add(2 * time.Minute)

	// Put lands between the expiry read and the delete
	replaced := false
	s.now = func() time.Time {
		if !replaced {
			replaced = true
			require.NoError(t, s.Put(ctx, "rate_limit_ip_a@acme.com", "submitted", time.Hour))
		}
		return now
	}

	_, ok, err := s.Get(ctx, "rate_limit_ip_a@acme.com")
	require.NoError(t, err)
	assert.False(t, ok)

	val, ok, err := s.Get(ctx, "rate_limit_ip_a@acme.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "submitted", val)
}
