// Package store persists metadata entity versions. The Postgres store
// is the system of record; the memory store backs tests and single-node
// deployments; the cached store layers an in-process LRU and Redis in
// front of either.
package store
