package groups

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory group and membership index. It backs
// single-node dev mode and unit tests.
type MemoryStore struct {
	mu           sync.RWMutex
	groups       map[string]*Group // by ID
	memberships  map[string][]Membership
	entityGroups map[string]map[string]struct{} // metaID -> groupID set
	adminUsers   map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:       make(map[string]*Group),
		memberships:  make(map[string][]Membership),
		entityGroups: make(map[string]map[string]struct{}),
		adminUsers:   make(map[string]struct{}),
	}
}

// CreateGroup creates a new group.
func (s *MemoryStore) CreateGroup(ctx context.Context, group *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now
	copied := *group
	s.groups[group.ID] = &copied
	return nil
}

// GetGroup retrieves a group by ID, nil when absent.
func (s *MemoryStore) GetGroup(ctx context.Context, id string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	copied := *group
	return &copied, nil
}

// GroupByName retrieves a group by name, nil when absent.
func (s *MemoryStore) GroupByName(ctx context.Context, name string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, group := range s.groups {
		if group.Name == name {
			copied := *group
			return &copied, nil
		}
	}
	return nil, nil
}

// ListGroups retrieves all groups ordered by name.
func (s *MemoryStore) ListGroups(ctx context.Context) ([]*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Group, 0, len(s.groups))
	for _, group := range s.groups {
		copied := *group
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DeleteGroup removes a group and its memberships.
func (s *MemoryStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("group not found")
	}
	delete(s.groups, id)
	for userID, list := range s.memberships {
		kept := list[:0]
		for _, m := range list {
			if m.GroupID != id {
				kept = append(kept, m)
			}
		}
		s.memberships[userID] = kept
	}
	return nil
}

// UpsertMembership creates or replaces a user's membership in a group.
func (s *MemoryStore) UpsertMembership(ctx context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.RequestedAt.IsZero() {
		m.RequestedAt = time.Now()
	}
	list := s.memberships[m.UserID]
	for i, existing := range list {
		if existing.GroupID == m.GroupID {
			list[i] = *m
			return nil
		}
	}
	s.memberships[m.UserID] = append(list, *m)
	return nil
}

// ListAcceptedMemberships returns all ACCEPTED memberships for a user.
func (s *MemoryStore) ListAcceptedMemberships(ctx context.Context, userID string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Membership
	for _, m := range s.memberships[userID] {
		if m.Effective() {
			result = append(result, m)
		}
	}
	return result, nil
}

// ListGroupMemberships returns every membership of a group, any status.
func (s *MemoryStore) ListGroupMemberships(ctx context.Context, groupID string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Membership
	for _, list := range s.memberships {
		for _, m := range list {
			if m.GroupID == groupID {
				result = append(result, m)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// AddEntityToGroup registers a (metaID, groupID) pair. Idempotent.
func (s *MemoryStore) AddEntityToGroup(ctx context.Context, metaID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.entityGroups[metaID]
	if !ok {
		set = make(map[string]struct{})
		s.entityGroups[metaID] = set
	}
	set[groupID] = struct{}{}
	return nil
}

// EntityGroups returns the group IDs an entity is registered with.
func (s *MemoryStore) EntityGroups(ctx context.Context, metaID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.entityGroups[metaID]
	result := make([]string, 0, len(set))
	for groupID := range set {
		result = append(result, groupID)
	}
	sort.Strings(result)
	return result, nil
}

// SetAdmin marks or unmarks a user as a system-wide admin.
func (s *MemoryStore) SetAdmin(userID string, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isAdmin {
		s.adminUsers[userID] = struct{}{}
	} else {
		delete(s.adminUsers, userID)
	}
}

// ListAdminUserIDs returns the IDs of system-wide admin users.
func (s *MemoryStore) ListAdminUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.adminUsers))
	for id := range s.adminUsers {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}
