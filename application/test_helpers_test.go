package application

import (
	"context"
	"sync"

	"questhelper/domain/interfaces"
	"questhelper/domain/testhelpers"
)

// fakeUnitOfWork hands out shared mock repositories and counts lifecycle calls
type fakeUnitOfWork struct {
	mu         sync.Mutex
	begins     int
	commits    int
	rollbacks  int
	beginErr   error
	commitErr  error
	settings   *testhelpers.MockGuildSettingsRepository
	diaries    *testhelpers.MockDiaryRepository
	roleRefs   *testhelpers.MockRoleReferenceRepository
	faqs       *testhelpers.MockFAQRepository
	publisher  *testhelpers.RecordingEventPublisher
	guildCalls []int64
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		settings:  new(testhelpers.MockGuildSettingsRepository),
		diaries:   new(testhelpers.MockDiaryRepository),
		roleRefs:  new(testhelpers.MockRoleReferenceRepository),
		faqs:      new(testhelpers.MockFAQRepository),
		publisher: &testhelpers.RecordingEventPublisher{},
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.beginErr != nil {
		return u.beginErr
	}
	u.begins++
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.commitErr != nil {
		return u.commitErr
	}
	u.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	return u.settings
}

func (u *fakeUnitOfWork) DiaryRepository() interfaces.DiaryRepository {
	return u.diaries
}

func (u *fakeUnitOfWork) RoleReferenceRepository() interfaces.RoleReferenceRepository {
	return u.roleRefs
}

func (u *fakeUnitOfWork) FAQRepository() interfaces.FAQRepository {
	return u.faqs
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.publisher
}

func (u *fakeUnitOfWork) counts() (begins, commits int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.begins, u.commits
}

// fakeUnitOfWorkFactory returns the same fake for every guild
type fakeUnitOfWorkFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUnitOfWorkFactory) CreateForGuild(guildID int64) UnitOfWork {
	f.uow.mu.Lock()
	f.uow.guildCalls = append(f.uow.guildCalls, guildID)
	f.uow.mu.Unlock()
	return f.uow
}
