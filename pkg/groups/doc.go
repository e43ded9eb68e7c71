// Package groups implements the access-control group and membership
// index: groups, per-group user roles with an approval workflow, the
// entity-to-group registry and the admin membership backfill.
package groups
