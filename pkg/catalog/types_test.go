package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusPublished, StatusArchived, StatusDiscarded} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("PENDING").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusArchived.Terminal())
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusPublished, StatusDiscarded} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindPerson.PrivacyRestricted())
	assert.True(t, KindOrganization.PrivacyRestricted())
	assert.True(t, KindContactPoint.PrivacyRestricted())
	assert.False(t, KindDataProduct.PrivacyRestricted())

	assert.True(t, KindDataProduct.PropagatesNestedReferences())
	assert.False(t, KindDistribution.PropagatesNestedReferences())
	assert.False(t, KindSoftware.PropagatesNestedReferences())
}

func TestCloneIsDeep(t *testing.T) {
	entity := &MetadataEntity{
		MetaID:     "m-1",
		InstanceID: "i-1",
		Groups:     []string{"g-1"},
		Linked:     []EntityRef{{MetaID: "d-m", InstanceID: "d-i"}},
		Payload:    json.RawMessage(`{"a":1}`),
	}
	copied := entity.Clone()
	copied.Groups[0] = "mutated"
	copied.Linked[0].MetaID = "mutated"
	copied.Payload[2] = 'x'

	assert.Equal(t, []string{"g-1"}, entity.Groups)
	assert.Equal(t, "d-m", entity.Linked[0].MetaID)
	assert.Equal(t, json.RawMessage(`{"a":1}`), entity.Payload)
}

func TestIsOwner(t *testing.T) {
	entity := &MetadataEntity{EditorID: "u-1"}
	assert.True(t, entity.IsOwner("u-1"))
	assert.False(t, entity.IsOwner("u-2"))

	// a version with no recorded editor has no owner
	assert.False(t, (&MetadataEntity{}).IsOwner(""))
}
