package catalog

import (
	"time"

	"github.com/google/uuid"
)

// ProvenanceBackoffice marks records last written by this service.
const ProvenanceBackoffice = "backoffice"

// WritePlan is the storage action a transition resolves to, plus the
// side effects the executing service must trigger after the write.
type WritePlan struct {
	// Entity is the version to persist.
	Entity *MetadataEntity

	// Fork is true when Entity is a new version rather than a rewrite of
	// an existing one.
	Fork bool

	// NotifyReview requests a review-requested notification (set on
	// DRAFT -> SUBMITTED).
	NotifyReview bool

	// ArchiveSweep requests demotion of every other PUBLISHED version of
	// the same meta ID (set on SUBMITTED -> PUBLISHED).
	ArchiveSweep bool

	// RegisterGroups lists the groups to (re-)register the entity's meta
	// ID with in the membership index. Registration is idempotent.
	RegisterGroups []string

	// RelinkFrom is the superseded ancestor whose downstream
	// associations must be re-pointed at the new version. Nil when the
	// entity's kind does not propagate nested references.
	RelinkFrom *MetadataEntity
}

// TransitionEngine turns (current version, requested state) into a
// WritePlan, enforcing the transition rules and the permission policy.
type TransitionEngine struct {
	eval  PermissionEvaluator
	now   func() time.Time
	newID func() string
}

// NewTransitionEngine creates a TransitionEngine with the given policy.
func NewTransitionEngine(eval PermissionEvaluator) *TransitionEngine {
	return &TransitionEngine{
		eval:  eval,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// PlanCreate computes the write plan for authoring an entity. When the
// caller references an existing version (ancestor non-nil) the new
// version forks from it; otherwise a brand-new lineage starts.
//
// fallbackGroupID is the distinguished public group, assigned when the
// caller specified no groups and has no writable group of their own. An
// empty fallback leaves the entity admin-only.
func (te *TransitionEngine) PlanCreate(incoming *MetadataEntity, ancestor *MetadataEntity, user User, roleMap RoleMap, fallbackGroupID string) (*WritePlan, error) {
	target := incoming.Status
	if target == "" {
		target = StatusDraft
	}
	if target == StatusArchived {
		return nil, &InvalidTransitionError{Requested: StatusArchived}
	}

	entity := incoming.Clone()
	entity.Status = target
	entity.EditorID = user.ID
	entity.Provenance = ProvenanceBackoffice

	if ancestor != nil {
		// Permission is checked against the ancestor's groups: the new
		// version descends from it and inherits its visibility.
		if !te.eval.CanWrite(ancestor, user, roleMap, target) {
			return nil, &AuthorizationError{UserID: user.ID, Action: "create a new version of this entity"}
		}
		if len(entity.Groups) == 0 {
			entity.Groups = append([]string(nil), ancestor.Groups...)
		}
		entity.MetaID = ancestor.MetaID
		entity.Kind = ancestor.Kind
		entity.InstanceID = te.newID()
		entity.InstanceChangedID = ancestor.InstanceID
	} else {
		if len(entity.Groups) == 0 {
			entity.Groups = roleMap.WritableGroups()
		}
		if len(entity.Groups) == 0 && fallbackGroupID != "" {
			entity.Groups = []string{fallbackGroupID}
		}
		if !te.eval.CanWrite(entity, user, roleMap, target) {
			return nil, &AuthorizationError{UserID: user.ID, Action: "create this entity"}
		}
		if entity.MetaID == "" {
			entity.MetaID = te.newID()
		}
		entity.InstanceID = te.newID()
		entity.InstanceChangedID = ""
	}

	now := te.now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	plan := &WritePlan{
		Entity:         entity,
		Fork:           true,
		RegisterGroups: entity.Groups,
	}
	if ancestor != nil && entity.Kind.PropagatesNestedReferences() {
		plan.RelinkFrom = ancestor
	}
	return plan, nil
}

// PlanUpdate computes the write plan for modifying an existing version.
// The transition rules decide between an in-place rewrite, a fork, and a
// rejection; the permission policy is evaluated for the requested status
// before any rule applies.
func (te *TransitionEngine) PlanUpdate(current *MetadataEntity, incoming *MetadataEntity, user User, roleMap RoleMap) (*WritePlan, error) {
	requested := incoming.Status
	if requested == "" {
		requested = StatusDraft
	}

	// ARCHIVED is terminal on both ends: an archived version admits no
	// writes, and no write may target ARCHIVED directly.
	if current.Status.Terminal() {
		return nil, &InvalidTransitionError{Current: current.Status, Requested: requested}
	}
	if requested == StatusArchived {
		return nil, &InvalidTransitionError{Current: current.Status, Requested: requested}
	}

	if !te.eval.CanWrite(current, user, roleMap, requested) {
		return nil, &AuthorizationError{UserID: user.ID, Action: "modify this entity"}
	}

	// An update without content is a status-only change of the stored
	// version; otherwise the incoming content replaces it.
	base := current
	if incoming.UID != "" {
		base = incoming
	}
	entity := base.Clone()
	entity.MetaID = current.MetaID
	entity.Kind = current.Kind
	entity.InstanceID = current.InstanceID
	entity.InstanceChangedID = current.InstanceChangedID
	entity.Status = requested
	entity.EditorID = user.ID
	entity.Provenance = ProvenanceBackoffice
	entity.CreatedAt = current.CreatedAt
	entity.UpdatedAt = te.now()
	if len(entity.Groups) == 0 {
		entity.Groups = append([]string(nil), current.Groups...)
	}

	switch {
	case current.Status == StatusDraft && requested == StatusDraft:
		if user.IsAdmin || current.IsOwner(user.ID) {
			return &WritePlan{Entity: entity}, nil
		}
		// Someone else's draft is never overwritten: the write lands in
		// an independent draft descending from the same ancestor.
		entity.InstanceID = te.newID()
		if current.InstanceChangedID != "" {
			entity.InstanceChangedID = current.InstanceChangedID
		} else {
			entity.InstanceChangedID = current.InstanceID
		}
		entity.CreatedAt = entity.UpdatedAt
		return &WritePlan{
			Entity:         entity,
			Fork:           true,
			RegisterGroups: entity.Groups,
		}, nil

	case (current.Status == StatusDraft || current.Status == StatusSubmitted) && requested == StatusDiscarded:
		return &WritePlan{Entity: entity}, nil

	case current.Status == StatusPublished && requested == StatusDiscarded:
		return &WritePlan{Entity: entity}, nil

	case current.Status == StatusPublished:
		// Any content edit of a published version forks a new DRAFT; the
		// published version itself is never mutated in place.
		entity.Status = StatusDraft
		entity.InstanceID = te.newID()
		entity.InstanceChangedID = current.InstanceID
		entity.CreatedAt = entity.UpdatedAt
		plan := &WritePlan{
			Entity:         entity,
			Fork:           true,
			RegisterGroups: entity.Groups,
		}
		if entity.Kind.PropagatesNestedReferences() {
			plan.RelinkFrom = current
		}
		return plan, nil

	case current.Status == StatusDraft && requested == StatusSubmitted:
		return &WritePlan{Entity: entity, NotifyReview: true}, nil

	case current.Status == StatusSubmitted && requested == StatusPublished:
		return &WritePlan{Entity: entity, ArchiveSweep: true}, nil
	}

	return nil, &InvalidTransitionError{Current: current.Status, Requested: requested}
}
