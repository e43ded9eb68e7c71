package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/observability"
)

func newCacheFixture(t *testing.T) (*CachedStore, *MemoryStore, *redis.Client, *observability.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backend := NewMemoryStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cached := NewCachedStore(backend, CacheOptions{
		Redis:   client,
		L1Size:  16,
		L1TTL:   time.Minute,
		TTL:     time.Minute,
		Metrics: metrics,
	})
	return cached, backend, client, metrics
}

func TestCachedStoreRetrieve(t *testing.T) {
	ctx := context.Background()
	cached, _, _, metrics := newCacheFixture(t)

	_, err := cached.Upsert(ctx, testEntity("m-1", "i-1", catalog.StatusDraft))
	require.NoError(t, err)

	// first read misses, second is served from L1
	got, err := cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissesTotal))

	_, err = cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal))
}

func TestCachedStoreServesFromL2(t *testing.T) {
	ctx := context.Background()
	cached, backend, client, _ := newCacheFixture(t)

	_, err := cached.Upsert(ctx, testEntity("m-1", "i-1", catalog.StatusDraft))
	require.NoError(t, err)
	_, err = cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)

	// a fresh instance shares only the L2 layer
	other := NewCachedStore(backend, CacheOptions{Redis: client})
	_, err = backend.Delete(ctx, "i-1")
	require.NoError(t, err)

	got, err := other.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "m-1", got.MetaID)
}

func TestCachedStoreInvalidatesOnUpsert(t *testing.T) {
	ctx := context.Background()
	cached, _, _, _ := newCacheFixture(t)

	_, err := cached.Upsert(ctx, testEntity("m-1", "i-1", catalog.StatusDraft))
	require.NoError(t, err)
	_, err = cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	_, err = cached.RetrieveByMetaID(ctx, "m-1")
	require.NoError(t, err)

	updated := testEntity("m-1", "i-1", catalog.StatusSubmitted)
	_, err = cached.Upsert(ctx, updated)
	require.NoError(t, err)

	got, err := cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusSubmitted, got.Status)

	versions, err := cached.RetrieveByMetaID(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, catalog.StatusSubmitted, versions[0].Status)
}

func TestCachedStoreInvalidatesOnDelete(t *testing.T) {
	ctx := context.Background()
	cached, _, _, _ := newCacheFixture(t)

	_, err := cached.Upsert(ctx, testEntity("m-1", "i-1", catalog.StatusDraft))
	require.NoError(t, err)
	_, err = cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)

	deleted, err := cached.Delete(ctx, "i-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedStoreWithoutRedis(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	cached := NewCachedStore(backend, CacheOptions{})

	_, err := cached.Upsert(ctx, testEntity("m-1", "i-1", catalog.StatusDraft))
	require.NoError(t, err)

	got, err := cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	// L1 serves the second read
	got, err = cached.Retrieve(ctx, "i-1")
	require.NoError(t, err)
	require.NotNil(t, got)
}
