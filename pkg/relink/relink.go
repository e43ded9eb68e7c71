package relink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/curation-works/metacat/pkg/async"
	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/observability"
)

// Relinker copies converter plugin relations from a superseded data
// product version's distributions to their counterparts in the
// replacing version. Counterparts are matched by the distributions'
// shared meta ID; a distribution that kept its instance ID needs no
// copying.
type Relinker struct {
	client  *ConverterClient
	workers int
	timeout time.Duration
	log     *observability.Logger
}

// RelinkerOptions configures a Relinker.
type RelinkerOptions struct {
	Workers int
	Timeout time.Duration
	Logger  *observability.Logger
}

// NewRelinker creates a relinker over the given converter client.
func NewRelinker(client *ConverterClient, opts RelinkerOptions) *Relinker {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Relinker{
		client:  client,
		workers: opts.Workers,
		timeout: opts.Timeout,
		log:     log,
	}
}

// relinkPair is one superseded-to-replacement distribution mapping.
type relinkPair struct {
	oldInstanceID string
	newInstanceID string
}

// Relink copies plugin relations for every distribution whose instance
// ID changed between the two versions. Failed pairs are reported
// together; successful pairs are never rolled back.
func (r *Relinker) Relink(ctx context.Context, superseded, replacement *catalog.MetadataEntity) error {
	pairs := matchDistributions(superseded, replacement)
	if len(pairs) == 0 {
		return nil
	}

	errs := async.Batch(ctx, pairs, r.workers, "plugin relation copy", r.timeout,
		func(ctx context.Context, pair relinkPair) error {
			return r.relinkOne(ctx, pair)
		})
	if len(errs) > 0 {
		r.log.WithFields(map[string]interface{}{
			"meta_id": replacement.MetaID,
			"failed":  len(errs),
			"total":   len(pairs),
		}).Error("plugin relation copy partially failed")
		return fmt.Errorf("failed to relink %d of %d distributions: %w",
			len(errs), len(pairs), errors.Join(errs...))
	}

	r.log.WithFields(map[string]interface{}{
		"meta_id":       replacement.MetaID,
		"distributions": len(pairs),
	}).Info("plugin relations relinked")
	return nil
}

func (r *Relinker) relinkOne(ctx context.Context, pair relinkPair) error {
	relations, err := r.client.RelationsFor(ctx, pair.oldInstanceID)
	if err != nil {
		return err
	}
	for _, relation := range relations {
		relation.ID = ""
		relation.RelationID = pair.newInstanceID
		if err := r.client.CreateRelation(ctx, relation); err != nil {
			return err
		}
	}
	return nil
}

// matchDistributions pairs the superseded version's linked distributions
// with the replacement's by meta ID, keeping only those whose instance
// ID actually changed.
func matchDistributions(superseded, replacement *catalog.MetadataEntity) []relinkPair {
	byMeta := make(map[string]string, len(replacement.Linked))
	for _, ref := range replacement.Linked {
		byMeta[ref.MetaID] = ref.InstanceID
	}

	var pairs []relinkPair
	for _, ref := range superseded.Linked {
		newInstanceID, ok := byMeta[ref.MetaID]
		if !ok || newInstanceID == ref.InstanceID {
			continue
		}
		pairs = append(pairs, relinkPair{
			oldInstanceID: ref.InstanceID,
			newInstanceID: newInstanceID,
		})
	}
	return pairs
}

var _ catalog.Relinker = (*Relinker)(nil)
