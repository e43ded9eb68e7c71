package groups

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SyncStore is the subset of the membership index the admin sync needs.
type SyncStore interface {
	ListAdminUserIDs(ctx context.Context) ([]string, error)
	ListGroups(ctx context.Context) ([]*Group, error)
	ListGroupMemberships(ctx context.Context, groupID string) ([]Membership, error)
	UpsertMembership(ctx context.Context, m *Membership) error
}

// Syncer backfills system-wide admin users into every group with
// role=ADMIN and status=ACCEPTED. Users already in a group are skipped.
type Syncer struct {
	store   SyncStore
	log     logrus.FieldLogger
	workers int
}

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	Logger logrus.FieldLogger

	// Workers bounds concurrent group processing; zero means 4.
	Workers int
}

// NewSyncer creates a Syncer.
func NewSyncer(store SyncStore, opts SyncerOptions) *Syncer {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 4
	}
	return &Syncer{store: store, log: log, workers: workers}
}

// SyncAdmins runs one backfill pass and returns the number of memberships
// added. Groups are processed concurrently; the first store error aborts
// the pass.
func (s *Syncer) SyncAdmins(ctx context.Context) (int, error) {
	adminIDs, err := s.store.ListAdminUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list admin users: %w", err)
	}
	if len(adminIDs) == 0 {
		s.log.Debug("admin sync: no admin users found")
		return 0, nil
	}

	allGroups, err := s.store.ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list groups: %w", err)
	}

	var added int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, group := range allGroups {
		group := group
		g.Go(func() error {
			n, err := s.syncGroup(gctx, group, adminIDs)
			if err != nil {
				return err
			}
			atomic.AddInt64(&added, int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&added)), err
	}

	if added > 0 {
		s.log.WithField("added", added).Info("admin sync: added new group memberships")
	}
	return int(added), nil
}

func (s *Syncer) syncGroup(ctx context.Context, group *Group, adminIDs []string) (int, error) {
	members, err := s.store.ListGroupMemberships(ctx, group.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list memberships of group %s: %w", group.ID, err)
	}

	present := make(map[string]struct{}, len(members))
	for _, m := range members {
		present[m.UserID] = struct{}{}
	}

	added := 0
	now := time.Now()
	for _, userID := range adminIDs {
		if _, ok := present[userID]; ok {
			continue
		}
		m := &Membership{
			UserID:        userID,
			GroupID:       group.ID,
			Role:          RoleAdmin,
			RequestStatus: RequestAccepted,
			RequestedAt:   now,
			DecidedAt:     &now,
		}
		if err := s.store.UpsertMembership(ctx, m); err != nil {
			return added, fmt.Errorf("failed to add admin %s to group %s: %w", userID, group.ID, err)
		}
		s.log.WithFields(logrus.Fields{"user": userID, "group": group.Name}).
			Debug("admin sync: added membership")
		added++
	}
	return added, nil
}
