package catalog

import (
	"github.com/curation-works/metacat/pkg/groups"
)

// PermissionEvaluator decides read- and write-eligibility from an
// entity's state and a caller's resolved role map. Both checks are pure
// functions; they never touch storage.
type PermissionEvaluator struct {
	// OpenAccessNoGroups relaxes the default admin-only policy for
	// entities with an empty group set. Historical deployments disagree
	// on this, so it is a flag rather than a silent choice.
	OpenAccessNoGroups bool
}

// CanRead reports whether the user may see this entity version.
func (p PermissionEvaluator) CanRead(entity *MetadataEntity, user User, roleMap RoleMap) bool {
	if user.IsAdmin {
		return true
	}
	if len(entity.Groups) == 0 {
		return p.OpenAccessNoGroups
	}

	role, ok := roleMap.EffectiveRole(entity.Groups)
	if !ok {
		return false
	}

	isOwner := entity.IsOwner(user.ID)
	switch entity.Status {
	case StatusPublished, StatusArchived:
		return true
	case StatusDraft:
		switch role {
		case groups.RoleAdmin:
			return true
		case groups.RoleEditor:
			return isOwner
		}
		return false
	case StatusSubmitted, StatusDiscarded:
		switch role {
		case groups.RoleAdmin, groups.RoleReviewer:
			return true
		case groups.RoleEditor:
			return isOwner
		}
		return false
	}
	return false
}

// CanWrite reports whether the user may author this entity version with
// the given target status. ARCHIVED can never be authored directly; it
// is only reached through the archival sweep of a publish.
func (p PermissionEvaluator) CanWrite(entity *MetadataEntity, user User, roleMap RoleMap, target Status) bool {
	if target == StatusArchived {
		return false
	}
	if user.IsAdmin {
		return true
	}
	if len(entity.Groups) == 0 {
		return p.OpenAccessNoGroups
	}

	role, ok := roleMap.EffectiveRole(entity.Groups)
	if !ok {
		return false
	}
	if role == groups.RoleAdmin {
		return true
	}

	switch target {
	case StatusDraft:
		return role == groups.RoleEditor
	case StatusSubmitted:
		return role == groups.RoleEditor && entity.IsOwner(user.ID)
	case StatusPublished, StatusDiscarded:
		return role == groups.RoleReviewer
	}
	return false
}
