// Package api exposes the catalog over HTTP: entity CRUD per kind,
// group and membership management, and the caller identity contract
// with the authenticating proxy.
package api
