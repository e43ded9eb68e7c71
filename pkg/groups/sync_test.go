package groups

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedGroups(t *testing.T, s *MemoryStore, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		group := &Group{Name: name}
		require.NoError(t, s.CreateGroup(context.Background(), group))
		ids = append(ids, group.ID)
	}
	return ids
}

func TestSyncAdminsBackfills(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ids := seedGroups(t, store, "seismology", "volcanology")
	store.SetAdmin("admin-1", true)
	store.SetAdmin("admin-2", true)

	syncer := NewSyncer(store, SyncerOptions{Logger: quietLogger()})
	added, err := syncer.SyncAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	for _, groupID := range ids {
		members, err := store.ListGroupMemberships(ctx, groupID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		for _, m := range members {
			assert.Equal(t, RoleAdmin, m.Role)
			assert.Equal(t, RequestAccepted, m.RequestStatus)
			require.NotNil(t, m.DecidedAt)
		}
	}
}

func TestSyncAdminsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedGroups(t, store, "seismology")
	store.SetAdmin("admin-1", true)

	syncer := NewSyncer(store, SyncerOptions{Logger: quietLogger()})
	added, err := syncer.SyncAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = syncer.SyncAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestSyncAdminsKeepsExistingMembership(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ids := seedGroups(t, store, "seismology")
	store.SetAdmin("admin-1", true)

	// the admin already holds a (non-admin) membership; it is kept
	require.NoError(t, store.UpsertMembership(ctx, &Membership{
		UserID: "admin-1", GroupID: ids[0], Role: RoleEditor, RequestStatus: RequestAccepted,
	}))

	syncer := NewSyncer(store, SyncerOptions{Logger: quietLogger()})
	added, err := syncer.SyncAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	members, err := store.ListGroupMemberships(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, RoleEditor, members[0].Role)
}

func TestSyncAdminsNoAdmins(t *testing.T) {
	store := NewMemoryStore()
	seedGroups(t, store, "seismology")

	syncer := NewSyncer(store, SyncerOptions{Logger: quietLogger()})
	added, err := syncer.SyncAdmins(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)
}
