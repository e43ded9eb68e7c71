package api

import (
	"net/http"

	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/httputil"
)

// writeCatalogError maps the catalog error taxonomy onto HTTP statuses.
func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case catalog.IsValidation(err):
		httputil.WriteBadRequest(w, err.Error())
	case catalog.IsAuthorization(err):
		httputil.WriteForbidden(w, err.Error())
	case catalog.IsNotFound(err):
		httputil.WriteNotFound(w, err.Error())
	case catalog.IsInvalidTransition(err):
		httputil.WriteConflict(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
