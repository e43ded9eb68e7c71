package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curation-works/metacat/pkg/groups"
)

func entityWith(status Status, editorID string, groupIDs ...string) *MetadataEntity {
	return &MetadataEntity{
		MetaID:     "m-1",
		InstanceID: "i-1",
		Kind:       KindDataProduct,
		Status:     status,
		EditorID:   editorID,
		Groups:     groupIDs,
	}
}

func TestCanReadMatrix(t *testing.T) {
	eval := PermissionEvaluator{}
	owner := User{ID: "owner-1"}
	other := User{ID: "other-1"}

	tests := []struct {
		name   string
		status Status
		role   groups.Role
		user   User
		want   bool
	}{
		// PUBLISHED and ARCHIVED are visible to any group member
		{"published viewer", StatusPublished, groups.RoleViewer, other, true},
		{"published editor", StatusPublished, groups.RoleEditor, other, true},
		{"archived viewer", StatusArchived, groups.RoleViewer, other, true},

		// DRAFT: group admins, and editors only on their own drafts
		{"draft group admin", StatusDraft, groups.RoleAdmin, other, true},
		{"draft owning editor", StatusDraft, groups.RoleEditor, owner, true},
		{"draft foreign editor", StatusDraft, groups.RoleEditor, other, false},
		{"draft reviewer", StatusDraft, groups.RoleReviewer, other, false},
		{"draft viewer", StatusDraft, groups.RoleViewer, other, false},

		// SUBMITTED: reviewers and group admins, editors on their own
		{"submitted reviewer", StatusSubmitted, groups.RoleReviewer, other, true},
		{"submitted group admin", StatusSubmitted, groups.RoleAdmin, other, true},
		{"submitted owning editor", StatusSubmitted, groups.RoleEditor, owner, true},
		{"submitted foreign editor", StatusSubmitted, groups.RoleEditor, other, false},
		{"submitted viewer", StatusSubmitted, groups.RoleViewer, other, false},

		// DISCARDED mirrors SUBMITTED
		{"discarded reviewer", StatusDiscarded, groups.RoleReviewer, other, true},
		{"discarded owning editor", StatusDiscarded, groups.RoleEditor, owner, true},
		{"discarded viewer", StatusDiscarded, groups.RoleViewer, other, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := entityWith(tt.status, owner.ID, "g-1")
			roleMap := RoleMap{"g-1": tt.role}
			assert.Equal(t, tt.want, eval.CanRead(entity, tt.user, roleMap))
		})
	}
}

func TestCanReadAdminSeesEverything(t *testing.T) {
	eval := PermissionEvaluator{}
	admin := User{ID: "root", IsAdmin: true}

	for _, status := range []Status{StatusDraft, StatusSubmitted, StatusPublished, StatusArchived, StatusDiscarded} {
		assert.True(t, eval.CanRead(entityWith(status, "someone", "g-1"), admin, RoleMap{}), string(status))
	}
}

func TestCanReadNonMember(t *testing.T) {
	eval := PermissionEvaluator{}
	entity := entityWith(StatusPublished, "owner-1", "g-1")
	assert.False(t, eval.CanRead(entity, User{ID: "u-1"}, RoleMap{}))
}

func TestCanReadNoGroups(t *testing.T) {
	entity := entityWith(StatusPublished, "owner-1")
	user := User{ID: "u-1"}

	strict := PermissionEvaluator{}
	assert.False(t, strict.CanRead(entity, user, RoleMap{}))
	assert.True(t, strict.CanRead(entity, User{ID: "root", IsAdmin: true}, RoleMap{}))

	open := PermissionEvaluator{OpenAccessNoGroups: true}
	assert.True(t, open.CanRead(entity, user, RoleMap{}))
}

func TestCanWriteMatrix(t *testing.T) {
	eval := PermissionEvaluator{}
	owner := User{ID: "owner-1"}
	other := User{ID: "other-1"}

	tests := []struct {
		name   string
		target Status
		role   groups.Role
		user   User
		want   bool
	}{
		// DRAFT writes need an editor role in an entity group
		{"draft editor", StatusDraft, groups.RoleEditor, other, true},
		{"draft reviewer", StatusDraft, groups.RoleReviewer, other, false},
		{"draft viewer", StatusDraft, groups.RoleViewer, other, false},

		// SUBMITTED additionally requires ownership
		{"submitted owning editor", StatusSubmitted, groups.RoleEditor, owner, true},
		{"submitted foreign editor", StatusSubmitted, groups.RoleEditor, other, false},
		{"submitted reviewer", StatusSubmitted, groups.RoleReviewer, other, false},

		// PUBLISHED and DISCARDED are reviewer decisions
		{"published reviewer", StatusPublished, groups.RoleReviewer, other, true},
		{"published editor", StatusPublished, groups.RoleEditor, owner, false},
		{"discarded reviewer", StatusDiscarded, groups.RoleReviewer, other, true},
		{"discarded viewer", StatusDiscarded, groups.RoleViewer, other, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := entityWith(StatusDraft, owner.ID, "g-1")
			roleMap := RoleMap{"g-1": tt.role}
			assert.Equal(t, tt.want, eval.CanWrite(entity, tt.user, roleMap, tt.target))
		})
	}
}

func TestCanWriteGroupAdminBypassesMatrix(t *testing.T) {
	eval := PermissionEvaluator{}
	entity := entityWith(StatusDraft, "someone", "g-1")
	roleMap := RoleMap{"g-1": groups.RoleAdmin}

	for _, target := range []Status{StatusDraft, StatusSubmitted, StatusPublished, StatusDiscarded} {
		assert.True(t, eval.CanWrite(entity, User{ID: "u-1"}, roleMap, target), string(target))
	}
}

func TestCanWriteArchivedNeverAllowed(t *testing.T) {
	eval := PermissionEvaluator{OpenAccessNoGroups: true}
	entity := entityWith(StatusPublished, "owner-1", "g-1")

	// not even system admins write ARCHIVED directly
	assert.False(t, eval.CanWrite(entity, User{ID: "root", IsAdmin: true}, RoleMap{}, StatusArchived))
	assert.False(t, eval.CanWrite(entity, User{ID: "u-1"}, RoleMap{"g-1": groups.RoleAdmin}, StatusArchived))
}

func TestCanWriteNoGroups(t *testing.T) {
	entity := entityWith(StatusDraft, "owner-1")
	user := User{ID: "u-1"}

	strict := PermissionEvaluator{}
	assert.False(t, strict.CanWrite(entity, user, RoleMap{}, StatusDraft))
	assert.True(t, strict.CanWrite(entity, User{ID: "root", IsAdmin: true}, RoleMap{}, StatusDraft))

	open := PermissionEvaluator{OpenAccessNoGroups: true}
	assert.True(t, open.CanWrite(entity, user, RoleMap{}, StatusDraft))
}

func TestCanWriteHighestRoleAcrossGroupsWins(t *testing.T) {
	eval := PermissionEvaluator{}
	entity := entityWith(StatusSubmitted, "owner-1", "g-1", "g-2")

	// viewer in one group, reviewer in another: reviewer wins
	roleMap := RoleMap{"g-1": groups.RoleViewer, "g-2": groups.RoleReviewer}
	assert.True(t, eval.CanWrite(entity, User{ID: "u-1"}, roleMap, StatusPublished))
}
