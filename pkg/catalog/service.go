package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/curation-works/metacat/pkg/async"
	"github.com/curation-works/metacat/pkg/groups"
	"github.com/curation-works/metacat/pkg/observability"
)

// RecordStore is the record storage collaborator. Retrieve returns
// (nil, nil) when the instance is absent.
type RecordStore interface {
	Retrieve(ctx context.Context, instanceID string) (*MetadataEntity, error)
	RetrieveAll(ctx context.Context) ([]*MetadataEntity, error)
	RetrieveAllWithStatus(ctx context.Context, status Status) ([]*MetadataEntity, error)
	RetrieveByMetaID(ctx context.Context, metaID string) ([]*MetadataEntity, error)
	Upsert(ctx context.Context, entity *MetadataEntity) (EntityRef, error)
	Delete(ctx context.Context, instanceID string) (bool, error)
}

// Notifier delivers review-requested notifications. Delivery is
// fire-and-forget; failures never fail the triggering operation.
type Notifier interface {
	NotifyReviewRequested(ctx context.Context, entity *MetadataEntity, submitter User) error
}

// Relinker re-points downstream associations from a superseded version's
// sub-records to their counterparts in the replacing version.
type Relinker interface {
	Relink(ctx context.Context, superseded, replacement *MetadataEntity) error
}

// Options configures a Service beyond its required collaborators.
type Options struct {
	Evaluator PermissionEvaluator
	Notifier  Notifier
	Relinker  Relinker
	Logger    *observability.Logger
	Metrics   *observability.Metrics

	// SideEffectTimeout bounds detached side effects (notification,
	// relinking). Zero means 30s.
	SideEffectTimeout time.Duration
}

// Service is the entry point for catalog operations. It resolves the
// caller's roles once per operation, authorizes the action, computes the
// write plan, executes it against the store and dispatches side effects.
type Service struct {
	store    RecordStore
	index    MembershipIndex
	resolver *RoleResolver
	engine   *TransitionEngine
	eval     PermissionEvaluator
	notifier Notifier
	relinker Relinker
	log      *observability.Logger
	metrics  *observability.Metrics
	timeout  time.Duration
}

// NewService creates a catalog service over the given collaborators.
func NewService(store RecordStore, index MembershipIndex, opts Options) *Service {
	timeout := opts.SideEffectTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Service{
		store:    store,
		index:    index,
		resolver: NewRoleResolver(index),
		engine:   NewTransitionEngine(opts.Evaluator),
		eval:     opts.Evaluator,
		notifier: opts.Notifier,
		relinker: opts.Relinker,
		log:      log,
		metrics:  opts.Metrics,
		timeout:  timeout,
	}
}

// Get returns the entity versions the caller may see. metaID "all" lists
// the whole catalog; instanceID "all" (or empty) lists every version of
// one logical entity. Versions the caller cannot read are omitted rather
// than erroring.
func (s *Service) Get(ctx context.Context, kind Kind, metaID, instanceID string, user User) ([]*MetadataEntity, error) {
	if metaID == "" {
		return nil, &ValidationError{Field: "meta_id", Reason: "can't be left blank"}
	}
	if kind.PrivacyRestricted() && !user.IsAdmin {
		return nil, &AuthorizationError{UserID: user.ID, Action: "access privacy-restricted entities"}
	}
	if instanceID == "" {
		instanceID = "all"
	}

	roleMap, err := s.resolver.ResolveRoles(ctx, user)
	if err != nil {
		return nil, err
	}

	var candidates []*MetadataEntity
	switch {
	case metaID == "all":
		candidates, err = s.store.RetrieveAll(ctx)
	case instanceID == "all":
		candidates, err = s.store.RetrieveByMetaID(ctx, metaID)
	default:
		var entity *MetadataEntity
		entity, err = s.store.Retrieve(ctx, instanceID)
		if entity != nil && entity.MetaID == metaID {
			candidates = []*MetadataEntity{entity}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve entities: %w", err)
	}

	result := make([]*MetadataEntity, 0, len(candidates))
	for _, entity := range candidates {
		if entity.Kind != kind {
			continue
		}
		if !s.eval.CanRead(entity, user, roleMap) {
			continue
		}
		result = append(result, entity)
	}
	s.countOp("get", "ok")
	return result, nil
}

// Create authors a new entity version. When the request references an
// existing instance the new version forks from it and inherits its
// lineage and groups.
func (s *Service) Create(ctx context.Context, entity *MetadataEntity, user User) (EntityRef, error) {
	if entity.Kind == "" {
		return EntityRef{}, &ValidationError{Field: "kind", Reason: "can't be left blank"}
	}

	roleMap, err := s.resolver.ResolveRoles(ctx, user)
	if err != nil {
		return EntityRef{}, err
	}

	var ancestor *MetadataEntity
	if entity.InstanceID != "" {
		ancestor, err = s.store.Retrieve(ctx, entity.InstanceID)
		if err != nil {
			return EntityRef{}, fmt.Errorf("failed to retrieve ancestor: %w", err)
		}
		if ancestor == nil {
			return EntityRef{}, &NotFoundError{InstanceID: entity.InstanceID}
		}
	}

	plan, err := s.engine.PlanCreate(entity, ancestor, user, roleMap, s.publicGroupID(ctx))
	if err != nil {
		s.countOp("create", outcomeOf(err))
		return EntityRef{}, err
	}

	ref, err := s.executePlan(ctx, plan, user)
	s.countOp("create", outcomeOf(err))
	return ref, err
}

// Update modifies an existing entity version according to the lifecycle
// rules: in-place rewrite, status change, or fork.
func (s *Service) Update(ctx context.Context, entity *MetadataEntity, user User) (EntityRef, error) {
	if entity.InstanceID == "" {
		return EntityRef{}, &ValidationError{Field: "instance_id", Reason: "is required for update"}
	}

	roleMap, err := s.resolver.ResolveRoles(ctx, user)
	if err != nil {
		return EntityRef{}, err
	}

	current, err := s.store.Retrieve(ctx, entity.InstanceID)
	if err != nil {
		return EntityRef{}, fmt.Errorf("failed to retrieve entity: %w", err)
	}
	if current == nil {
		return EntityRef{}, &NotFoundError{InstanceID: entity.InstanceID}
	}

	plan, err := s.engine.PlanUpdate(current, entity, user, roleMap)
	if err != nil {
		s.countOp("update", outcomeOf(err))
		return EntityRef{}, err
	}
	if s.metrics != nil {
		s.metrics.LifecycleTransitionsTotal.WithLabelValues(string(current.Status), string(plan.Entity.Status)).Inc()
	}

	ref, err := s.executePlan(ctx, plan, user)
	s.countOp("update", outcomeOf(err))
	return ref, err
}

// Delete physically removes one version from the store. It requires the
// same authorization as modifying the entity in its current status. No
// version-chain repair is performed.
func (s *Service) Delete(ctx context.Context, instanceID string, user User) error {
	if instanceID == "" {
		return &ValidationError{Field: "instance_id", Reason: "is required for delete"}
	}

	roleMap, err := s.resolver.ResolveRoles(ctx, user)
	if err != nil {
		return err
	}

	current, err := s.store.Retrieve(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to retrieve entity: %w", err)
	}
	if current == nil {
		return &NotFoundError{InstanceID: instanceID}
	}
	if current.Status.Terminal() {
		return &InvalidTransitionError{Current: current.Status, Requested: current.Status}
	}
	if !s.eval.CanWrite(current, user, roleMap, current.Status) {
		s.countOp("delete", "denied")
		return &AuthorizationError{UserID: user.ID, Action: "delete this entity"}
	}

	deleted, err := s.store.Delete(ctx, instanceID)
	if err != nil {
		s.countOp("delete", "error")
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if !deleted {
		return &NotFoundError{InstanceID: instanceID}
	}
	s.countOp("delete", "ok")
	return nil
}

// executePlan performs the primary write, then the archival sweep, group
// registration and detached side effects. Only the primary write can
// fail the operation.
func (s *Service) executePlan(ctx context.Context, plan *WritePlan, user User) (EntityRef, error) {
	ref, err := s.store.Upsert(ctx, plan.Entity)
	if err != nil {
		return EntityRef{}, fmt.Errorf("failed to store entity: %w", err)
	}

	if plan.ArchiveSweep {
		s.archiveOldPublished(ctx, ref.MetaID, ref.InstanceID)
	}

	for _, groupID := range plan.RegisterGroups {
		if err := s.index.AddEntityToGroup(ctx, ref.MetaID, groupID); err != nil {
			s.log.WithError(err).WithFields(map[string]interface{}{
				"meta_id": ref.MetaID,
				"group":   groupID,
			}).Error("failed to register entity with group")
		}
	}

	if plan.NotifyReview && s.notifier != nil {
		entity := plan.Entity
		async.SafeGo(context.WithoutCancel(ctx), s.timeout, "review notification", func(ctx context.Context) error {
			return s.notifier.NotifyReviewRequested(ctx, entity, user)
		})
	}

	if plan.RelinkFrom != nil && s.relinker != nil {
		superseded := plan.RelinkFrom
		replacement := plan.Entity
		async.SafeGo(context.WithoutCancel(ctx), s.timeout, "nested reference relink", func(ctx context.Context) error {
			return s.relinker.Relink(ctx, superseded, replacement)
		})
	}

	return ref, nil
}

// archiveOldPublished demotes every other PUBLISHED version of metaID to
// ARCHIVED, enforcing the one-PUBLISHED-per-metaID invariant. The sweep
// is not atomic: a failed item is logged and convergence is eventual.
func (s *Service) archiveOldPublished(ctx context.Context, metaID, keepInstanceID string) {
	published, err := s.store.RetrieveAllWithStatus(ctx, StatusPublished)
	if err != nil {
		s.log.WithError(err).WithField("meta_id", metaID).Error("archival sweep: failed to list published versions")
		return
	}
	for _, entity := range published {
		if entity.MetaID != metaID || entity.InstanceID == keepInstanceID {
			continue
		}
		demoted := entity.Clone()
		demoted.Status = StatusArchived
		demoted.UpdatedAt = time.Now()
		if _, err := s.store.Upsert(ctx, demoted); err != nil {
			s.log.WithError(err).WithFields(map[string]interface{}{
				"meta_id":     metaID,
				"instance_id": entity.InstanceID,
			}).Error("archival sweep: failed to archive version")
		}
	}
}

// publicGroupID resolves the distinguished public group, empty when it
// does not exist.
func (s *Service) publicGroupID(ctx context.Context) string {
	group, err := s.index.GroupByName(ctx, groups.PublicGroupName)
	if err != nil {
		s.log.WithError(err).Warn("failed to look up public group")
		return ""
	}
	if group == nil {
		return ""
	}
	return group.ID
}

func (s *Service) countOp(op, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CatalogOperationsTotal.WithLabelValues(op, outcome).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsAuthorization(err):
		return "denied"
	case IsInvalidTransition(err):
		return "invalid_transition"
	case IsNotFound(err):
		return "not_found"
	case IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
