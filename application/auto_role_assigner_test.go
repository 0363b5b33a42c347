package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"questhelper/domain/entities"
	"questhelper/domain/services"
	"questhelper/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingRoleAssigner struct {
	mu      sync.Mutex
	granted []int64
	failFor map[int64]error
}

func (r *recordingRoleAssigner) AddMemberRole(ctx context.Context, guildID, userID, roleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[roleID]; ok {
		return err
	}
	r.granted = append(r.granted, roleID)
	return nil
}

func (r *recordingRoleAssigner) Granted() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.granted...)
}

func waitForResult(t *testing.T, results <-chan AutoRoleResult) AutoRoleResult {
	t.Helper()
	select {
	case result := <-results:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for auto-role result")
		return AutoRoleResult{}
	}
}

func TestAutoRoleAssigner_AssignsReconciledRoles(t *testing.T) {
	defer goleak.VerifyNone(t)

	uow := newFakeUnitOfWork()
	snapshot := new(testhelpers.MockRoleSnapshotProvider)
	snapshot.On("ListRoles", mock.Anything, testGuildID).Return([]entities.Role{
		{ID: 10, Name: "Member", Position: 1},
		{ID: 11, Name: "Newbie", Position: 2},
		{ID: 12, Name: "Admin", Position: 9},
	}, nil)
	snapshot.On("GetBotHierarchyPosition", mock.Anything, testGuildID).Return(5, nil)

	uow.roleRefs.On("List", mock.Anything, entities.RoleKindAutoRole).Return([]*entities.RoleReference{
		{ID: 1, GuildID: testGuildID, RoleID: 11, Kind: entities.RoleKindAutoRole},
		{ID: 2, GuildID: testGuildID, RoleID: 404, Kind: entities.RoleKindAutoRole},
		{ID: 3, GuildID: testGuildID, RoleID: 10, Kind: entities.RoleKindAutoRole},
		{ID: 4, GuildID: testGuildID, RoleID: 12, Kind: entities.RoleKindAutoRole},
	}, nil)
	uow.roleRefs.On("RemoveBatch", mock.Anything, []int64{2, 4}).Return(nil).Once()

	roleAssigner := &recordingRoleAssigner{}
	results := make(chan AutoRoleResult, 1)

	assigner := NewAutoRoleAssigner(&fakeUnitOfWorkFactory{uow: uow}, snapshot, roleAssigner, 4, 1000)
	assigner.SetResults(results)
	stop := assigner.Start(context.Background())
	defer stop()

	require.True(t, assigner.Submit(Join{GuildID: testGuildID, UserID: testUserID}))

	result := waitForResult(t, results)
	require.NoError(t, result.Err)
	assert.Equal(t, []int64{11, 10}, result.Assigned)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []int64{11, 10}, roleAssigner.Granted())

	_, commits := uow.counts()
	assert.Equal(t, 1, commits)
	uow.roleRefs.AssertExpectations(t)
	assert.Len(t, uow.publisher.Published(), 1)

	stop()
}

func TestAutoRoleAssigner_ContinuesAfterAssignmentFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	uow := newFakeUnitOfWork()
	snapshot := new(testhelpers.MockRoleSnapshotProvider)
	snapshot.On("ListRoles", mock.Anything, testGuildID).Return([]entities.Role{
		{ID: 10, Position: 1},
		{ID: 11, Position: 2},
	}, nil)
	snapshot.On("GetBotHierarchyPosition", mock.Anything, testGuildID).Return(5, nil)
	uow.roleRefs.On("List", mock.Anything, entities.RoleKindAutoRole).Return([]*entities.RoleReference{
		{ID: 1, RoleID: 10, Kind: entities.RoleKindAutoRole},
		{ID: 2, RoleID: 11, Kind: entities.RoleKindAutoRole},
	}, nil)

	denied := errors.New("missing access")
	roleAssigner := &recordingRoleAssigner{failFor: map[int64]error{10: denied}}
	results := make(chan AutoRoleResult, 1)

	assigner := NewAutoRoleAssigner(&fakeUnitOfWorkFactory{uow: uow}, snapshot, roleAssigner, 4, 1000)
	assigner.SetResults(results)
	stop := assigner.Start(context.Background())
	defer stop()

	assigner.Submit(Join{GuildID: testGuildID, UserID: testUserID})

	result := waitForResult(t, results)
	require.NoError(t, result.Err)
	assert.Equal(t, []int64{11}, result.Assigned)
	assert.ErrorIs(t, result.Failed[10], denied)
}

func TestAutoRoleAssigner_ReportsReconciliationFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	uow := newFakeUnitOfWork()
	snapshot := new(testhelpers.MockRoleSnapshotProvider)
	snapshot.On("ListRoles", mock.Anything, testGuildID).Return(nil, errors.New("guild not cached"))

	roleAssigner := &recordingRoleAssigner{}
	results := make(chan AutoRoleResult, 1)

	assigner := NewAutoRoleAssigner(&fakeUnitOfWorkFactory{uow: uow}, snapshot, roleAssigner, 4, 1000)
	assigner.SetResults(results)
	stop := assigner.Start(context.Background())
	defer stop()

	assigner.Submit(Join{GuildID: testGuildID, UserID: testUserID})

	result := waitForResult(t, results)
	assert.ErrorIs(t, result.Err, services.ErrReconciliationUnavailable)
	assert.Empty(t, roleAssigner.Granted())
	_, commits := uow.counts()
	assert.Zero(t, commits)
}

func TestAutoRoleAssigner_DropsWhenQueueFull(t *testing.T) {
	uow := newFakeUnitOfWork()
	assigner := NewAutoRoleAssigner(&fakeUnitOfWorkFactory{uow: uow}, new(testhelpers.MockRoleSnapshotProvider), &recordingRoleAssigner{}, 1, 1000)

	assert.True(t, assigner.Submit(Join{GuildID: testGuildID, UserID: 1}))
	assert.False(t, assigner.Submit(Join{GuildID: testGuildID, UserID: 2}))
}

func TestAutoRoleAssigner_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	assigner := NewAutoRoleAssigner(&fakeUnitOfWorkFactory{uow: newFakeUnitOfWork()}, new(testhelpers.MockRoleSnapshotProvider), &recordingRoleAssigner{}, 1, 1000)

	stop := assigner.Start(ctx)
	cancel()
	stop()
	stop()
}
