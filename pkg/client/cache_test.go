package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheLastSuccessfulFetchWins(t *testing.T) {
	cache := NewCache()
	sig := signature("GET", "/problem-reports/42")

	_, ok := cache.Get(sig)
	require.False(t, ok)

	cache.Set(sig, json.RawMessage(`{"id":"42","status":"open"}`))
	raw, ok := cache.Get(sig)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"42","status":"open"}`, string(raw))

	cache.Set(sig, json.RawMessage(`{"id":"42","status":"completed"}`))
	raw, ok = cache.Get(sig)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"42","status":"completed"}`, string(raw))
	require.Equal(t, 1, cache.Len())
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache()
	sig := signature("GET", "/problem-reports/42/messages")

	cache.Set(sig, json.RawMessage(`[]`))
	cache.Invalidate(sig)
	_, ok := cache.Get(sig)
	require.False(t, ok)
	require.Equal(t, 0, cache.Len())

	// invalidating an absent signature is a no-op
	cache.Invalidate(sig)
}

func TestCacheSignaturesAreIndependent(t *testing.T) {
	cache := NewCache()
	cache.Set(signature("GET", "/problem-reports/1"), json.RawMessage(`{"id":"1"}`))
	cache.Set(signature("GET", "/problem-reports/2"), json.RawMessage(`{"id":"2"}`))

	cache.Invalidate(signature("GET", "/problem-reports/1"))
	_, ok := cache.Get(signature("GET", "/problem-reports/2"))
	require.True(t, ok)
}
