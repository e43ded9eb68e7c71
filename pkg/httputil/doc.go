// Package httputil holds shared HTTP plumbing: JSON responses, request
// parsing helpers and server middleware.
package httputil
