package catalog

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle state of an entity version.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
	StatusDiscarded Status = "DISCARDED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusPublished, StatusArchived, StatusDiscarded:
		return true
	}
	return false
}

// Terminal reports whether the state admits no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusArchived
}

// Kind discriminates the catalog record types. Policy that used to be
// per-type dispatch hangs off capability predicates on Kind instead.
type Kind string

const (
	KindDataProduct   Kind = "DATAPRODUCT"
	KindDistribution  Kind = "DISTRIBUTION"
	KindSoftware      Kind = "SOFTWARE"
	KindWebService    Kind = "WEBSERVICE"
	KindFacility      Kind = "FACILITY"
	KindEquipment     Kind = "EQUIPMENT"
	KindPerson        Kind = "PERSON"
	KindOrganization  Kind = "ORGANIZATION"
	KindContactPoint  Kind = "CONTACTPOINT"
)

// PrivacyRestricted reports whether records of this kind are readable by
// system admins only.
func (k Kind) PrivacyRestricted() bool {
	switch k {
	case KindPerson, KindOrganization, KindContactPoint:
		return true
	}
	return false
}

// PropagatesNestedReferences reports whether forking a record of this
// kind must re-point downstream associations of its nested references.
func (k Kind) PropagatesNestedReferences() bool {
	return k == KindDataProduct
}

// EntityRef is a reference to one version of an entity.
type EntityRef struct {
	MetaID     string `json:"meta_id"`
	InstanceID string `json:"instance_id"`
}

// MetadataEntity is one version of a catalog record.
//
// MetaID is shared by every version of the same logical entity;
// InstanceID names exactly one version. A version is never mutated after
// publication: edits of a PUBLISHED version fork a new DRAFT linked back
// through InstanceChangedID.
type MetadataEntity struct {
	MetaID            string          `json:"meta_id"`
	InstanceID        string          `json:"instance_id"`
	UID               string          `json:"uid,omitempty"`
	Kind              Kind            `json:"kind"`
	Status            Status          `json:"status"`
	EditorID          string          `json:"editor_id,omitempty"`
	Groups            []string        `json:"groups,omitempty"`
	InstanceChangedID string          `json:"instance_changed_id,omitempty"`
	Provenance        string          `json:"provenance,omitempty"`
	Payload           json.RawMessage `json:"payload,omitempty"`

	// Linked holds references to sub-records (e.g. the distributions of
	// a data product), by stable logical identity plus version.
	Linked []EntityRef `json:"linked,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the version reference of the entity.
func (e *MetadataEntity) Ref() EntityRef {
	return EntityRef{MetaID: e.MetaID, InstanceID: e.InstanceID}
}

// Clone returns a deep copy of the entity.
func (e *MetadataEntity) Clone() *MetadataEntity {
	copied := *e
	if e.Groups != nil {
		copied.Groups = append([]string(nil), e.Groups...)
	}
	if e.Linked != nil {
		copied.Linked = append([]EntityRef(nil), e.Linked...)
	}
	if e.Payload != nil {
		copied.Payload = append(json.RawMessage(nil), e.Payload...)
	}
	return &copied
}

// IsOwner reports whether the given user authored this version.
func (e *MetadataEntity) IsOwner(userID string) bool {
	return e.EditorID != "" && e.EditorID == userID
}

// User is a validated, authenticated caller. Authentication itself
// happens upstream; the engine only consumes the result.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}
