package testhelpers

import (
	"context"
	"sync"

	"questhelper/domain/entities"
	"questhelper/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockGuildSettingsRepository is a mock implementation of GuildSettingsRepository
type MockGuildSettingsRepository struct {
	mock.Mock
}

func (m *MockGuildSettingsRepository) GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockDiaryRepository is a mock implementation of DiaryRepository
type MockDiaryRepository struct {
	mock.Mock
}

func (m *MockDiaryRepository) Create(ctx context.Context, diary *entities.Diary) error {
	args := m.Called(ctx, diary)
	return args.Error(0)
}

func (m *MockDiaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Diary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Diary), args.Error(1)
}

func (m *MockDiaryRepository) GetByControlMessageID(ctx context.Context, messageID int64) (*entities.Diary, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Diary), args.Error(1)
}

func (m *MockDiaryRepository) GetByName(ctx context.Context, name string) (*entities.Diary, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Diary), args.Error(1)
}

func (m *MockDiaryRepository) ListAll(ctx context.Context) ([]*entities.Diary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Diary), args.Error(1)
}

func (m *MockDiaryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.DiaryStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDiaryRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockDiaryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRoleReferenceRepository is a mock implementation of RoleReferenceRepository
type MockRoleReferenceRepository struct {
	mock.Mock
}

func (m *MockRoleReferenceRepository) List(ctx context.Context, kind entities.RoleKind) ([]*entities.RoleReference, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RoleReference), args.Error(1)
}

func (m *MockRoleReferenceRepository) Add(ctx context.Context, kind entities.RoleKind, roleID int64) error {
	args := m.Called(ctx, kind, roleID)
	return args.Error(0)
}

func (m *MockRoleReferenceRepository) Remove(ctx context.Context, kind entities.RoleKind, roleID int64) (bool, error) {
	args := m.Called(ctx, kind, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleReferenceRepository) RemoveBatch(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// MockFAQRepository is a mock implementation of FAQRepository
type MockFAQRepository struct {
	mock.Mock
}

func (m *MockFAQRepository) Get(ctx context.Context, name string) (*entities.FAQ, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FAQ), args.Error(1)
}

func (m *MockFAQRepository) List(ctx context.Context) ([]*entities.FAQ, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FAQ), args.Error(1)
}

func (m *MockFAQRepository) Create(ctx context.Context, faq *entities.FAQ) error {
	args := m.Called(ctx, faq)
	return args.Error(0)
}

func (m *MockFAQRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockFAQRepository) UpdateOwner(ctx context.Context, id int64, ownerID int64) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockFAQRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRoleSnapshotProvider is a mock implementation of RoleSnapshotProvider
type MockRoleSnapshotProvider struct {
	mock.Mock
}

func (m *MockRoleSnapshotProvider) ListRoles(ctx context.Context, guildID int64) ([]entities.Role, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Role), args.Error(1)
}

func (m *MockRoleSnapshotProvider) GetBotHierarchyPosition(ctx context.Context, guildID int64) (int, error) {
	args := m.Called(ctx, guildID)
	return args.Int(0), args.Error(1)
}

func (m *MockRoleSnapshotProvider) GetMemberRoles(ctx context.Context, guildID, userID int64) ([]int64, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// RecordingEventPublisher captures published events for assertions
type RecordingEventPublisher struct {
	mu           sync.Mutex
	Events       []events.Event
	PublishError error
}

func (p *RecordingEventPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishError != nil {
		return p.PublishError
	}
	p.Events = append(p.Events, event)
	return nil
}

// Published returns a copy of the captured events
func (p *RecordingEventPublisher) Published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.Events))
	copy(out, p.Events)
	return out
}
