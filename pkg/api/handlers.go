package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/httputil"
)

// getEntities handles GET /api/v1/{kind}/{metaId}. metaId "all" lists
// the catalog; the instance_id query parameter defaults to "all".
func (s *Server) getEntities(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	kind, ok := s.kindFromPath(w, r)
	if !ok {
		return
	}
	metaID, ok := httputil.ParsePathStringOrError(w, r, "metaId")
	if !ok {
		return
	}
	instanceID := httputil.ParseQueryString(r, "instance_id", "all")

	entities, err := s.catalog.Get(r.Context(), kind, metaID, instanceID, user)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	httputil.WriteSuccess(w, EntityListResponse{Entities: entities, Count: len(entities)})
}

// listEntities handles GET /api/v1/{kind}.
func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	kind, ok := s.kindFromPath(w, r)
	if !ok {
		return
	}

	entities, err := s.catalog.Get(r.Context(), kind, "all", "all", user)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	httputil.WriteSuccess(w, EntityListResponse{Entities: entities, Count: len(entities)})
}

// createEntity handles POST /api/v1/{kind}. A body referencing an
// existing instance_id forks a new version from it.
func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	kind, ok := s.kindFromPath(w, r)
	if !ok {
		return
	}

	var entity catalog.MetadataEntity
	if !httputil.ParseJSONOrError(w, r, &entity) {
		return
	}
	entity.Kind = kind

	ref, err := s.catalog.Create(r.Context(), &entity, user)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	httputil.WriteCreated(w, EntityRefResponse{MetaID: ref.MetaID, InstanceID: ref.InstanceID})
}

// updateEntity handles PUT /api/v1/{kind}. The body names the version
// through instance_id; the lifecycle rules decide between an in-place
// rewrite, a status change and a fork.
func (s *Server) updateEntity(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	kind, ok := s.kindFromPath(w, r)
	if !ok {
		return
	}

	var entity catalog.MetadataEntity
	if !httputil.ParseJSONOrError(w, r, &entity) {
		return
	}
	entity.Kind = kind

	ref, err := s.catalog.Update(r.Context(), &entity, user)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	httputil.WriteSuccess(w, EntityRefResponse{MetaID: ref.MetaID, InstanceID: ref.InstanceID})
}

// deleteEntity handles DELETE /api/v1/{kind}/instances/{instanceId}.
func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		httputil.WriteUnauthorized(w, "no user identified")
		return
	}
	instanceID, ok := httputil.ParsePathStringOrError(w, r, "instanceId")
	if !ok {
		return
	}

	if err := s.catalog.Delete(r.Context(), instanceID, user); err != nil {
		writeCatalogError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) kindFromPath(w http.ResponseWriter, r *http.Request) (catalog.Kind, bool) {
	segment := mux.Vars(r)["kind"]
	kind, ok := kindsByPath[segment]
	if !ok {
		httputil.WriteNotFound(w, "unknown entity kind: "+segment)
		return "", false
	}
	return kind, true
}
