package api

import (
	"context"
	"net/http"
	"time"

	"github.com/curation-works/metacat/pkg/groups"
	"github.com/curation-works/metacat/pkg/httputil"
)

// GroupDirectory is the group store surface the API needs.
type GroupDirectory interface {
	CreateGroup(ctx context.Context, group *groups.Group) error
	GetGroup(ctx context.Context, id string) (*groups.Group, error)
	ListGroups(ctx context.Context) ([]*groups.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	UpsertMembership(ctx context.Context, m *groups.Membership) error
	ListGroupMemberships(ctx context.Context, groupID string) ([]groups.Membership, error)
	EntityGroups(ctx context.Context, metaID string) ([]string, error)
}

// createGroup handles POST /api/v1/groups. Admin only.
func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	if !user.IsAdmin {
		httputil.WriteForbidden(w, "only admins can create groups")
		return
	}

	var group groups.Group
	if !httputil.ParseJSONOrError(w, r, &group) {
		return
	}
	if !httputil.RequireNonEmpty(w, group.Name, "name") {
		return
	}

	if err := s.groups.CreateGroup(r.Context(), &group); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, group)
}

// listGroups handles GET /api/v1/groups.
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	if _, ok := userFromRequest(r); !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}

	result, err := s.groups.ListGroups(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// getGroup handles GET /api/v1/groups/{groupId}.
func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := userFromRequest(r); !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "groupId")
	if !ok {
		return
	}

	group, err := s.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if group == nil {
		httputil.WriteNotFound(w, "group not found")
		return
	}
	httputil.WriteSuccess(w, group)
}

// deleteGroup handles DELETE /api/v1/groups/{groupId}. Admin only.
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	if !user.IsAdmin {
		httputil.WriteForbidden(w, "only admins can delete groups")
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "groupId")
	if !ok {
		return
	}

	if err := s.groups.DeleteGroup(r.Context(), groupID); err != nil {
		httputil.WriteNotFound(w, err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

// upsertMembership handles POST /api/v1/groups/{groupId}/members.
// Admins decide memberships directly; everyone else may only request
// one for themselves, which lands PENDING until an admin accepts it.
func (s *Server) upsertMembership(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "groupId")
	if !ok {
		return
	}

	var body MembershipRequest
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}
	if body.UserID == "" {
		body.UserID = user.ID
	}

	membership := groups.Membership{
		UserID:      body.UserID,
		GroupID:     groupID,
		Role:        groups.Role(body.Role),
		RequestedAt: time.Now(),
	}
	if !membership.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role: "+body.Role)
		return
	}

	if user.IsAdmin {
		membership.RequestStatus = groups.RequestStatus(body.RequestStatus)
		if membership.RequestStatus == "" {
			membership.RequestStatus = groups.RequestAccepted
		}
		if membership.RequestStatus != groups.RequestPending {
			now := time.Now()
			membership.DecidedAt = &now
		}
	} else {
		if body.UserID != user.ID {
			httputil.WriteForbidden(w, "only admins can manage other users' memberships")
			return
		}
		membership.RequestStatus = groups.RequestPending
	}

	if err := s.groups.UpsertMembership(r.Context(), &membership); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, membership)
}

// listMembers handles GET /api/v1/groups/{groupId}/members. Admin only:
// the listing includes pending and rejected requests.
func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	if !user.IsAdmin {
		httputil.WriteForbidden(w, "only admins can list group members")
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "groupId")
	if !ok {
		return
	}

	members, err := s.groups.ListGroupMemberships(r.Context(), groupID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, members)
}

// listEntityGroups handles GET /api/v1/entities/{metaId}/groups.
func (s *Server) listEntityGroups(w http.ResponseWriter, r *http.Request) {
	if _, ok := userFromRequest(r); !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	metaID, ok := httputil.ParsePathStringOrError(w, r, "metaId")
	if !ok {
		return
	}

	groupIDs, err := s.groups.EntityGroups(r.Context(), metaID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"meta_id": metaID,
		"groups":  groupIDs,
	})
}
