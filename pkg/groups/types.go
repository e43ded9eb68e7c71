package groups

import "time"

// Role represents the role a user holds within a single group.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleReviewer Role = "REVIEWER"
	RoleEditor   Role = "EDITOR"
	RoleViewer   Role = "VIEWER"
)

// Priority returns the ordering weight of a role. Higher wins when a user
// holds several roles across the groups an entity belongs to.
func (r Role) Priority() int {
	switch r {
	case RoleAdmin:
		return 4
	case RoleReviewer:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Priority() > 0
}

// CanWrite reports whether the role grants write access within its group.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleReviewer || r == RoleEditor
}

// RequestStatus represents the state of a group membership request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
	RequestRevoked  RequestStatus = "REVOKED"
)

// PublicGroupName is the distinguished group that marks public content.
// Entities created by users with no writable group land here.
const PublicGroupName = "ALL"

// Group is a named access-control group. Entities belong to groups and
// users hold per-group roles.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership ties a user to a group with a role and an approval status.
// Only ACCEPTED memberships are effective for permission purposes.
type Membership struct {
	UserID        string        `json:"user_id"`
	GroupID       string        `json:"group_id"`
	Role          Role          `json:"role"`
	RequestStatus RequestStatus `json:"request_status"`
	RequestedAt   time.Time     `json:"requested_at"`
	DecidedAt     *time.Time    `json:"decided_at,omitempty"`
}

// Effective reports whether the membership counts for permission checks.
func (m Membership) Effective() bool {
	return m.RequestStatus == RequestAccepted
}
