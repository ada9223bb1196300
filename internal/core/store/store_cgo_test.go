//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/core"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openMemoryStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestAvailabilityCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	miss, err := store.GetAvailability(ctx, "example.com")
	require.NoError(t, err)
	require.Nil(t, miss)

	now := time.Now().UTC().Truncate(time.Second)
	entry := core.CacheEntry{
		Domain:     "Example.COM",
		Available:  true,
		Premium:    core.BoolPtr(false),
		Source:     "rdap",
		ObservedAt: now,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
	require.NoError(t, store.PutAvailability(ctx, entry))

	hit, err := store.GetAvailability(ctx, "EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, hit)
	require.Equal(t, "example.com", hit.Domain)
	require.True(t, hit.Available)
	require.NotNil(t, hit.Premium)
	require.False(t, *hit.Premium)
	require.Equal(t, "rdap", hit.Source)
}

func TestAvailabilityCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	observed := time.Now().UTC().Add(-time.Hour)
	entry := core.CacheEntry{
		Domain:     "stale.com",
		Available:  false,
		Source:     "dns",
		ObservedAt: observed,
		ExpiresAt:  observed.Add(time.Minute),
	}
	require.NoError(t, store.PutAvailability(ctx, entry))

	hit, err := store.GetAvailability(ctx, "stale.com")
	require.NoError(t, err)
	require.Nil(t, hit)

	purged, err := store.PurgeExpiredAvailability(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
}

func TestBootstrapPersistence(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	updatedAt := time.Now().UTC()
	require.NoError(t, store.SetRDAPServers(ctx, ".COM", []string{"https://rdap.example/com"}, updatedAt))

	servers, err := store.GetRDAPServers(ctx, "com")
	require.NoError(t, err)
	require.Equal(t, []string{"https://rdap.example/com"}, servers)

	require.NoError(t, store.SetBootstrapMeta(ctx, "bootstrap_version", "1.0"))
	version, err := store.GetBootstrapMeta(ctx, "bootstrap_version")
	require.NoError(t, err)
	require.Equal(t, "1.0", version)

	count, err := store.CountBootstrapTLDs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRateLimitPersistence(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	missing, err := store.GetRateLimit(ctx, "rdap.verisign.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	now := time.Now().UTC().Truncate(time.Second)
	backoff := now.Add(30 * time.Second)
	state := &core.RateLimitState{
		RequestCount: 7,
		WindowStart:  now,
		BackoffUntil: &backoff,
	}
	require.NoError(t, store.UpdateRateLimit(ctx, "rdap.verisign.com", state))

	loaded, err := store.GetRateLimit(ctx, "rdap.verisign.com")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 7, loaded.RequestCount)
	require.NotNil(t, loaded.BackoffUntil)
	require.Equal(t, backoff.Unix(), loaded.BackoffUntil.Unix())
	require.Nil(t, loaded.Last429At)
}
