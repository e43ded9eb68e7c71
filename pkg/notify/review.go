package notify

import (
	"fmt"
	"strings"

	"github.com/curation-works/metacat/pkg/catalog"
)

func reviewSubject(entity *catalog.MetadataEntity) string {
	return fmt.Sprintf("[metacat] %s submitted for review", strings.ToLower(string(entity.Kind)))
}

func reviewBody(entity *catalog.MetadataEntity, submitter catalog.User) string {
	submitterName := submitter.FullName
	if submitterName == "" {
		submitterName = submitter.Username
	}
	if submitterName == "" {
		submitterName = submitter.ID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A %s version was submitted for review.\n\n", strings.ToLower(string(entity.Kind)))
	fmt.Fprintf(&b, "Entity:   %s\n", entity.MetaID)
	fmt.Fprintf(&b, "Version:  %s\n", entity.InstanceID)
	if entity.UID != "" {
		fmt.Fprintf(&b, "UID:      %s\n", entity.UID)
	}
	fmt.Fprintf(&b, "Submitted by: %s", submitterName)
	if submitter.Email != "" {
		fmt.Fprintf(&b, " <%s>", submitter.Email)
	}
	b.WriteString("\n\nPlease review and publish or discard it in the backoffice.\n")
	return b.String()
}
