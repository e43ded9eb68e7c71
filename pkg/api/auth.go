package api

import (
	"net/http"

	"github.com/curation-works/metacat/pkg/catalog"
)

// Identity headers set by the authenticating reverse proxy. The proxy
// terminates the actual authentication; this service only consumes the
// validated result.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-User-Name"
	HeaderEmail    = "X-User-Email"
	HeaderFullName = "X-User-Full-Name"
	HeaderIsAdmin  = "X-User-Admin"
)

// userFromRequest builds the caller from the proxy identity headers.
// It reports false when no user is identified.
func userFromRequest(r *http.Request) (catalog.User, bool) {
	id := r.Header.Get(HeaderUserID)
	if id == "" {
		return catalog.User{}, false
	}
	return catalog.User{
		ID:       id,
		Username: r.Header.Get(HeaderUsername),
		Email:    r.Header.Get(HeaderEmail),
		FullName: r.Header.Get(HeaderFullName),
		IsAdmin:  r.Header.Get(HeaderIsAdmin) == "true",
	}, true
}
