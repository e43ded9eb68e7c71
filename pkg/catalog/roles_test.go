package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-works/metacat/pkg/groups"
)

func TestEffectiveRolePicksHighest(t *testing.T) {
	roleMap := RoleMap{
		"g-1": groups.RoleViewer,
		"g-2": groups.RoleReviewer,
		"g-3": groups.RoleEditor,
	}

	role, ok := roleMap.EffectiveRole([]string{"g-1", "g-2", "g-3"})
	require.True(t, ok)
	assert.Equal(t, groups.RoleReviewer, role)

	role, ok = roleMap.EffectiveRole([]string{"g-1"})
	require.True(t, ok)
	assert.Equal(t, groups.RoleViewer, role)

	_, ok = roleMap.EffectiveRole([]string{"g-unknown"})
	assert.False(t, ok)

	_, ok = roleMap.EffectiveRole(nil)
	assert.False(t, ok)
}

func TestWritableGroupsSorted(t *testing.T) {
	roleMap := RoleMap{
		"g-c": groups.RoleEditor,
		"g-a": groups.RoleReviewer,
		"g-b": groups.RoleViewer,
		"g-d": groups.RoleAdmin,
	}
	assert.Equal(t, []string{"g-a", "g-c", "g-d"}, roleMap.WritableGroups())
}

func TestResolveRolesKeepsHighestPerGroup(t *testing.T) {
	ctx := context.Background()
	index := groups.NewMemoryStore()

	for _, m := range []groups.Membership{
		{UserID: "u-1", GroupID: "g-1", Role: groups.RoleEditor, RequestStatus: groups.RequestAccepted},
		{UserID: "u-1", GroupID: "g-2", Role: groups.RoleViewer, RequestStatus: groups.RequestAccepted},
		// pending memberships never count
		{UserID: "u-1", GroupID: "g-3", Role: groups.RoleAdmin, RequestStatus: groups.RequestPending},
	} {
		m := m
		require.NoError(t, index.UpsertMembership(ctx, &m))
	}

	resolver := NewRoleResolver(index)
	roleMap, err := resolver.ResolveRoles(ctx, User{ID: "u-1"})
	require.NoError(t, err)

	assert.Equal(t, RoleMap{"g-1": groups.RoleEditor, "g-2": groups.RoleViewer}, roleMap)
}

func TestResolveRolesAdminBypass(t *testing.T) {
	resolver := NewRoleResolver(groups.NewMemoryStore())
	roleMap, err := resolver.ResolveRoles(context.Background(), User{ID: "root", IsAdmin: true})
	require.NoError(t, err)
	assert.Empty(t, roleMap)
}
