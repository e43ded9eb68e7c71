// Package catalog implements the entity lifecycle and permission
// engine: versioned metadata records, the
// DRAFT/SUBMITTED/PUBLISHED/ARCHIVED/DISCARDED state machine with
// copy-on-write forking, group-scoped permission evaluation and the
// side effects a transition triggers.
package catalog
