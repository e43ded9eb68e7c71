package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/observability"
)

// CachedStore layers an in-process LRU (L1) and Redis (L2) in front of
// a record store. Single-version lookups and per-meta-ID listings are
// cached; full-catalog scans always hit the backend because the
// archival sweep depends on their freshness.
type CachedStore struct {
	backend catalog.RecordStore
	l1      *expirable.LRU[string, *catalog.MetadataEntity]
	redis   *redis.Client
	ttl     time.Duration
	log     *observability.Logger
	metrics *observability.Metrics
}

// CacheOptions configures a CachedStore.
type CacheOptions struct {
	// Redis is the L2 cache client; nil disables the L2 layer.
	Redis *redis.Client

	L1Size int
	L1TTL  time.Duration

	// TTL bounds L2 entries.
	TTL time.Duration

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// NewCachedStore wraps backend with the L1/L2 record cache.
func NewCachedStore(backend catalog.RecordStore, opts CacheOptions) *CachedStore {
	if opts.L1Size <= 0 {
		opts.L1Size = 1024
	}
	if opts.L1TTL <= 0 {
		opts.L1TTL = 1 * time.Minute
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &CachedStore{
		backend: backend,
		l1:      expirable.NewLRU[string, *catalog.MetadataEntity](opts.L1Size, nil, opts.L1TTL),
		redis:   opts.Redis,
		ttl:     opts.TTL,
		log:     log,
		metrics: opts.Metrics,
	}
}

func instanceKey(instanceID string) string { return "metacat:entity:" + instanceID }
func metaKey(metaID string) string         { return "metacat:meta:" + metaID }

// Retrieve returns one version, served from L1, then L2, then the
// backend.
func (c *CachedStore) Retrieve(ctx context.Context, instanceID string) (*catalog.MetadataEntity, error) {
	if entity, ok := c.l1.Get(instanceID); ok {
		c.hit()
		return entity.Clone(), nil
	}

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, instanceKey(instanceID)).Result()
		if err == nil {
			var entity catalog.MetadataEntity
			if err := json.Unmarshal([]byte(cached), &entity); err == nil {
				c.hit()
				c.l1.Add(instanceID, &entity)
				return entity.Clone(), nil
			}
		}
	}
	c.miss()

	entity, err := c.backend.Retrieve(ctx, instanceID)
	if err != nil || entity == nil {
		return entity, err
	}

	c.l1.Add(instanceID, entity.Clone())
	if c.redis != nil {
		if data, err := json.Marshal(entity); err == nil {
			if err := c.redis.Set(ctx, instanceKey(instanceID), data, c.ttl).Err(); err != nil {
				c.log.WithError(err).Debug("failed to populate L2 cache")
			}
		}
	}
	return entity, nil
}

// RetrieveAll always reads through to the backend.
func (c *CachedStore) RetrieveAll(ctx context.Context) ([]*catalog.MetadataEntity, error) {
	return c.backend.RetrieveAll(ctx)
}

// RetrieveAllWithStatus always reads through to the backend.
func (c *CachedStore) RetrieveAllWithStatus(ctx context.Context, status catalog.Status) ([]*catalog.MetadataEntity, error) {
	return c.backend.RetrieveAllWithStatus(ctx, status)
}

// RetrieveByMetaID returns every version of one logical entity, served
// from L2 when fresh.
func (c *CachedStore) RetrieveByMetaID(ctx context.Context, metaID string) ([]*catalog.MetadataEntity, error) {
	if c.redis != nil {
		cached, err := c.redis.Get(ctx, metaKey(metaID)).Result()
		if err == nil {
			var entities []*catalog.MetadataEntity
			if err := json.Unmarshal([]byte(cached), &entities); err == nil {
				c.hit()
				return entities, nil
			}
		}
		c.miss()
	}

	entities, err := c.backend.RetrieveByMetaID(ctx, metaID)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(entities); err == nil {
			if err := c.redis.Set(ctx, metaKey(metaID), data, c.ttl).Err(); err != nil {
				c.log.WithError(err).Debug("failed to populate L2 cache")
			}
		}
	}
	return entities, nil
}

// Upsert writes through to the backend and invalidates the version and
// its meta-ID listing.
func (c *CachedStore) Upsert(ctx context.Context, entity *catalog.MetadataEntity) (catalog.EntityRef, error) {
	ref, err := c.backend.Upsert(ctx, entity)
	if err != nil {
		return catalog.EntityRef{}, err
	}
	c.invalidate(ctx, ref.InstanceID, ref.MetaID)
	return ref, nil
}

// Delete removes a version from the backend and the caches.
func (c *CachedStore) Delete(ctx context.Context, instanceID string) (bool, error) {
	// The meta-ID listing must be invalidated too, so look the version
	// up before removing it.
	metaID := ""
	if entity, err := c.Retrieve(ctx, instanceID); err == nil && entity != nil {
		metaID = entity.MetaID
	}

	deleted, err := c.backend.Delete(ctx, instanceID)
	if err != nil {
		return false, err
	}
	c.invalidate(ctx, instanceID, metaID)
	return deleted, nil
}

func (c *CachedStore) invalidate(ctx context.Context, instanceID, metaID string) {
	c.l1.Remove(instanceID)
	if c.redis == nil {
		return
	}
	keys := []string{instanceKey(instanceID)}
	if metaID != "" {
		keys = append(keys, metaKey(metaID))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("instance_id", instanceID).Warn("failed to invalidate cache")
	}
}

func (c *CachedStore) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *CachedStore) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

var _ catalog.RecordStore = (*CachedStore)(nil)
var _ catalog.RecordStore = (*PostgresStore)(nil)
var _ catalog.RecordStore = (*MemoryStore)(nil)
