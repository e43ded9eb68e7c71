package groups

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePriorityOrdering(t *testing.T) {
	assert.Greater(t, RoleAdmin.Priority(), RoleReviewer.Priority())
	assert.Greater(t, RoleReviewer.Priority(), RoleEditor.Priority())
	assert.Greater(t, RoleEditor.Priority(), RoleViewer.Priority())
	assert.Greater(t, RoleViewer.Priority(), Role("").Priority())
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleReviewer, RoleEditor, RoleViewer} {
		assert.True(t, role.Valid(), string(role))
	}
	assert.False(t, Role("OWNER").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoleCanWrite(t *testing.T) {
	assert.True(t, RoleAdmin.CanWrite())
	assert.True(t, RoleReviewer.CanWrite())
	assert.True(t, RoleEditor.CanWrite())
	assert.False(t, RoleViewer.CanWrite())
}

func TestMembershipEffective(t *testing.T) {
	assert.True(t, Membership{RequestStatus: RequestAccepted}.Effective())
	assert.False(t, Membership{RequestStatus: RequestPending}.Effective())
	assert.False(t, Membership{RequestStatus: RequestRejected}.Effective())
	assert.False(t, Membership{RequestStatus: RequestRevoked}.Effective())
}
