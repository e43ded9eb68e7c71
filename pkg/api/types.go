package api

import (
	"sort"

	"github.com/curation-works/metacat/pkg/catalog"
)

// kindsByPath maps URL path segments to catalog kinds.
var kindsByPath = map[string]catalog.Kind{
	"dataproducts":  catalog.KindDataProduct,
	"distributions": catalog.KindDistribution,
	"software":      catalog.KindSoftware,
	"webservices":   catalog.KindWebService,
	"facilities":    catalog.KindFacility,
	"equipment":     catalog.KindEquipment,
	"persons":       catalog.KindPerson,
	"organizations": catalog.KindOrganization,
	"contactpoints": catalog.KindContactPoint,
}

// KindPaths returns the supported path segments, sorted.
func KindPaths() []string {
	paths := make([]string, 0, len(kindsByPath))
	for p := range kindsByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// EntityRefResponse is returned by write operations.
type EntityRefResponse struct {
	MetaID     string `json:"meta_id"`
	InstanceID string `json:"instance_id"`
}

// EntityListResponse wraps entity listings.
type EntityListResponse struct {
	Entities []*catalog.MetadataEntity `json:"entities"`
	Count    int                       `json:"count"`
}

// MembershipRequest is the body for creating or deciding a membership.
type MembershipRequest struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	RequestStatus string `json:"request_status,omitempty"`
}
