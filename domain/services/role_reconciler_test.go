package services

import (
	"context"
	"errors"
	"testing"

	"questhelper/domain/entities"
	"questhelper/domain/testhelpers"
	"questhelper/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const reconcileGuild = int64(4242)

func ref(id, roleID int64) *entities.RoleReference {
	return &entities.RoleReference{ID: id, GuildID: reconcileGuild, RoleID: roleID, Kind: entities.RoleKindAutoRole}
}

func TestRoleReconciler_ResolveRoles(t *testing.T) {
	t.Parallel()

	liveRoles := []entities.Role{
		{ID: 1, Name: "Member", Position: 1},
		{ID: 2, Name: "Quester", Position: 3},
		{ID: 3, Name: "Moderator", Position: 9},
		{ID: 4, Name: "Helper", Position: 5},
	}

	tests := []struct {
		name          string
		refs          []*entities.RoleReference
		botPosition   int
		wantRoleIDs   []int64
		wantPruned    []int64
		wantEventRole []int64
	}{
		{
			name:        "all valid, stored order preserved",
			refs:        []*entities.RoleReference{ref(10, 4), ref(11, 1), ref(12, 2)},
			botPosition: 6,
			wantRoleIDs: []int64{4, 1, 2},
		},
		{
			name:          "missing role excluded and removed",
			refs:          []*entities.RoleReference{ref(10, 1), ref(11, 77)},
			botPosition:   6,
			wantRoleIDs:   []int64{1},
			wantPruned:    []int64{11},
			wantEventRole: []int64{77},
		},
		{
			name:          "role above bot excluded and removed",
			refs:          []*entities.RoleReference{ref(10, 3), ref(11, 2)},
			botPosition:   6,
			wantRoleIDs:   []int64{2},
			wantPruned:    []int64{10},
			wantEventRole: []int64{3},
		},
		{
			name:        "role at bot position is valid",
			refs:        []*entities.RoleReference{ref(10, 4)},
			botPosition: 5,
			wantRoleIDs: []int64{4},
		},
		{
			name:          "missing and out of reach pruned in one batch",
			refs:          []*entities.RoleReference{ref(10, 99), ref(11, 1), ref(12, 3)},
			botPosition:   6,
			wantRoleIDs:   []int64{1},
			wantPruned:    []int64{10, 12},
			wantEventRole: []int64{99, 3},
		},
		{
			name:        "duplicate references return the role once and prune extras",
			refs:        []*entities.RoleReference{ref(10, 2), ref(11, 1), ref(12, 2), ref(13, 2)},
			botPosition: 6,
			wantRoleIDs: []int64{2, 1},
			wantPruned:  []int64{12, 13},
		},
		{
			name:        "no references",
			refs:        []*entities.RoleReference{},
			botPosition: 6,
			wantRoleIDs: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snapshot := new(testhelpers.MockRoleSnapshotProvider)
			snapshot.On("ListRoles", mock.Anything, reconcileGuild).Return(liveRoles, nil)
			snapshot.On("GetBotHierarchyPosition", mock.Anything, reconcileGuild).Return(tt.botPosition, nil)

			repo := new(testhelpers.MockRoleReferenceRepository)
			repo.On("List", mock.Anything, entities.RoleKindAutoRole).Return(tt.refs, nil)
			if len(tt.wantPruned) > 0 {
				repo.On("RemoveBatch", mock.Anything, tt.wantPruned).Return(nil).Once()
			}
			publisher := &testhelpers.RecordingEventPublisher{}

			reconciler := NewRoleReconciler(snapshot, repo, publisher)
			roles, err := reconciler.ResolveRoles(context.Background(), reconcileGuild, entities.RoleKindAutoRole)
			require.NoError(t, err)

			gotIDs := make([]int64, 0, len(roles))
			for _, role := range roles {
				gotIDs = append(gotIDs, role.ID)
			}
			assert.Equal(t, tt.wantRoleIDs, gotIDs)

			if len(tt.wantPruned) == 0 {
				repo.AssertNotCalled(t, "RemoveBatch", mock.Anything, mock.Anything)
			}

			if len(tt.wantEventRole) > 0 {
				published := publisher.Published()
				require.Len(t, published, 1)
				event := published[0].(events.RoleReferencesPrunedEvent)
				assert.Equal(t, tt.wantEventRole, event.RoleIDs)
				assert.Equal(t, entities.RoleKindAutoRole, event.Kind)
			} else {
				assert.Empty(t, publisher.Published())
			}

			repo.AssertExpectations(t)
			snapshot.AssertExpectations(t)
		})
	}
}

func TestRoleReconciler_SecondPassIsClean(t *testing.T) {
	t.Parallel()

	snapshot := new(testhelpers.MockRoleSnapshotProvider)
	snapshot.On("ListRoles", mock.Anything, reconcileGuild).Return([]entities.Role{{ID: 1, Position: 1}}, nil)
	snapshot.On("GetBotHierarchyPosition", mock.Anything, reconcileGuild).Return(4, nil)

	repo := new(testhelpers.MockRoleReferenceRepository)
	repo.On("List", mock.Anything, entities.RoleKindRank).
		Return([]*entities.RoleReference{ref(1, 1), ref(2, 50)}, nil).Once()
	repo.On("RemoveBatch", mock.Anything, []int64{2}).Return(nil).Once()
	repo.On("List", mock.Anything, entities.RoleKindRank).
		Return([]*entities.RoleReference{ref(1, 1)}, nil).Once()

	reconciler := NewRoleReconciler(snapshot, repo, &testhelpers.RecordingEventPublisher{})

	for i := 0; i < 2; i++ {
		roles, err := reconciler.ResolveRoles(context.Background(), reconcileGuild, entities.RoleKindRank)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, int64(1), roles[0].ID)
	}

	repo.AssertNumberOfCalls(t, "RemoveBatch", 1)
}

func TestRoleReconciler_SnapshotFailures(t *testing.T) {
	t.Parallel()

	t.Run("list roles fails", func(t *testing.T) {
		t.Parallel()

		notInState := errors.New("guild not in state")
		snapshot := new(testhelpers.MockRoleSnapshotProvider)
		snapshot.On("ListRoles", mock.Anything, reconcileGuild).Return(nil, notInState)
		repo := new(testhelpers.MockRoleReferenceRepository)

		reconciler := NewRoleReconciler(snapshot, repo, &testhelpers.RecordingEventPublisher{})
		roles, err := reconciler.ResolveRoles(context.Background(), reconcileGuild, entities.RoleKindRank)

		assert.Nil(t, roles)
		assert.ErrorIs(t, err, ErrReconciliationUnavailable)
		assert.ErrorIs(t, err, notInState)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "RemoveBatch", mock.Anything, mock.Anything)
	})

	t.Run("bot position fails", func(t *testing.T) {
		t.Parallel()

		snapshot := new(testhelpers.MockRoleSnapshotProvider)
		snapshot.On("ListRoles", mock.Anything, reconcileGuild).Return([]entities.Role{}, nil)
		memberMissing := errors.New("bot member missing")
		snapshot.On("GetBotHierarchyPosition", mock.Anything, reconcileGuild).Return(0, memberMissing)
		repo := new(testhelpers.MockRoleReferenceRepository)

		reconciler := NewRoleReconciler(snapshot, repo, &testhelpers.RecordingEventPublisher{})
		_, err := reconciler.ResolveRoles(context.Background(), reconcileGuild, entities.RoleKindRank)

		assert.ErrorIs(t, err, ErrReconciliationUnavailable)
		assert.ErrorIs(t, err, memberMissing)
		repo.AssertNotCalled(t, "RemoveBatch", mock.Anything, mock.Anything)
	})
}

func TestRoleReconciler_PruneErrorIsReturned(t *testing.T) {
	t.Parallel()

	snapshot := new(testhelpers.MockRoleSnapshotProvider)
	snapshot.On("ListRoles", mock.Anything, reconcileGuild).Return([]entities.Role{}, nil)
	snapshot.On("GetBotHierarchyPosition", mock.Anything, reconcileGuild).Return(1, nil)

	repo := new(testhelpers.MockRoleReferenceRepository)
	repo.On("List", mock.Anything, entities.RoleKindAutoRole).Return([]*entities.RoleReference{ref(1, 5)}, nil)
	repo.On("RemoveBatch", mock.Anything, []int64{1}).Return(errors.New("deadlock detected"))

	reconciler := NewRoleReconciler(snapshot, repo, &testhelpers.RecordingEventPublisher{})
	_, err := reconciler.ResolveRoles(context.Background(), reconcileGuild, entities.RoleKindAutoRole)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.NotErrorIs(t, err, ErrReconciliationUnavailable)
}
