package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/curation-works/metacat/pkg/groups"
)

// MembershipIndex is the group-membership collaborator the engine needs.
type MembershipIndex interface {
	ListAcceptedMemberships(ctx context.Context, userID string) ([]groups.Membership, error)
	AddEntityToGroup(ctx context.Context, metaID, groupID string) error
	GroupByName(ctx context.Context, name string) (*groups.Group, error)
}

// RoleMap maps group ID to the user's effective role in that group.
type RoleMap map[string]groups.Role

// EffectiveRole returns the highest-priority role the user holds across
// the given entity groups, and whether any membership applies at all.
func (m RoleMap) EffectiveRole(entityGroups []string) (groups.Role, bool) {
	var best groups.Role
	found := false
	for _, groupID := range entityGroups {
		role, ok := m[groupID]
		if !ok {
			continue
		}
		if !found || role.Priority() > best.Priority() {
			best = role
			found = true
		}
	}
	return best, found
}

// WritableGroups returns the groups where the user may author content,
// sorted for determinism.
func (m RoleMap) WritableGroups() []string {
	var result []string
	for groupID, role := range m {
		if role.CanWrite() {
			result = append(result, groupID)
		}
	}
	sort.Strings(result)
	return result
}

// RoleResolver reduces a user's accepted memberships to one
// highest-priority role per group. The result is computed once per
// logical operation and reused for every permission check within it.
type RoleResolver struct {
	index MembershipIndex
}

// NewRoleResolver creates a RoleResolver over the membership index.
func NewRoleResolver(index MembershipIndex) *RoleResolver {
	return &RoleResolver{index: index}
}

// ResolveRoles queries the user's ACCEPTED memberships once and keeps the
// highest-priority role per group. Admin users bypass role checks
// entirely, so their map is empty.
func (r *RoleResolver) ResolveRoles(ctx context.Context, user User) (RoleMap, error) {
	roleMap := make(RoleMap)
	if user.IsAdmin {
		return roleMap, nil
	}

	memberships, err := r.index.ListAcceptedMemberships(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles for user %s: %w", user.ID, err)
	}
	for _, m := range memberships {
		if !m.Effective() || !m.Role.Valid() {
			continue
		}
		if current, ok := roleMap[m.GroupID]; ok && current.Priority() >= m.Role.Priority() {
			continue
		}
		roleMap[m.GroupID] = m.Role
	}
	return roleMap, nil
}
