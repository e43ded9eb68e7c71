package store

import (
	"context"
	"sort"
	"sync"

	"github.com/curation-works/metacat/pkg/catalog"
)

// MemoryStore is an in-memory record store for tests and single-node
// deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[string]*catalog.MetadataEntity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entities: make(map[string]*catalog.MetadataEntity)}
}

// Retrieve returns one version by instance ID, (nil, nil) when absent.
func (s *MemoryStore) Retrieve(ctx context.Context, instanceID string) (*catalog.MetadataEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.entities[instanceID]
	if !ok {
		return nil, nil
	}
	return entity.Clone(), nil
}

// RetrieveAll returns every stored version.
func (s *MemoryStore) RetrieveAll(ctx context.Context) ([]*catalog.MetadataEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*catalog.MetadataEntity) bool { return true }), nil
}

// RetrieveAllWithStatus returns every version in the given status.
func (s *MemoryStore) RetrieveAllWithStatus(ctx context.Context, status catalog.Status) ([]*catalog.MetadataEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *catalog.MetadataEntity) bool { return e.Status == status }), nil
}

// RetrieveByMetaID returns every version of one logical entity.
func (s *MemoryStore) RetrieveByMetaID(ctx context.Context, metaID string) ([]*catalog.MetadataEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *catalog.MetadataEntity) bool { return e.MetaID == metaID }), nil
}

// Upsert stores a version, replacing any existing one with the same
// instance ID.
func (s *MemoryStore) Upsert(ctx context.Context, entity *catalog.MetadataEntity) (catalog.EntityRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities[entity.InstanceID] = entity.Clone()
	return entity.Ref(), nil
}

// Delete removes one version, reporting false when it was absent.
func (s *MemoryStore) Delete(ctx context.Context, instanceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[instanceID]; !ok {
		return false, nil
	}
	delete(s.entities, instanceID)
	return true, nil
}

// Len returns the number of stored versions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

func (s *MemoryStore) collect(keep func(*catalog.MetadataEntity) bool) []*catalog.MetadataEntity {
	result := make([]*catalog.MetadataEntity, 0, len(s.entities))
	for _, entity := range s.entities {
		if keep(entity) {
			result = append(result, entity.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].MetaID != result[j].MetaID {
			return result[i].MetaID < result[j].MetaID
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].InstanceID < result[j].InstanceID
	})
	return result
}
