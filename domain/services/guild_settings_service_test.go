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

func strPtr(s string) *string { return &s }

func TestGuildSettingsService_SetPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		prefix      string
		setupMock   func(*testhelpers.MockGuildSettingsRepository)
		wantErr     error
		errContains string
		wantEvent   bool
	}{
		{
			name:   "stores valid prefix",
			prefix: "?",
			setupMock: func(mockRepo *testhelpers.MockGuildSettingsRepository) {
				mockRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(100)).
					Return(&entities.GuildSettings{GuildID: 100}, nil)
				mockRepo.On("UpdateGuildSettings", mock.Anything, mock.MatchedBy(func(s *entities.GuildSettings) bool {
					return s.Prefix != nil && *s.Prefix == "?"
				})).Return(nil)
			},
			wantEvent: true,
		},
		{
			name:   "eight characters is allowed",
			prefix: "abcdefgh",
			setupMock: func(mockRepo *testhelpers.MockGuildSettingsRepository) {
				mockRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(100)).
					Return(&entities.GuildSettings{GuildID: 100, Prefix: strPtr("!")}, nil)
				mockRepo.On("UpdateGuildSettings", mock.Anything, mock.Anything).Return(nil)
			},
			wantEvent: true,
		},
		{
			name:      "empty prefix rejected",
			prefix:    "",
			setupMock: func(mockRepo *testhelpers.MockGuildSettingsRepository) {},
			wantErr:   ErrInvalidPrefix,
		},
		{
			name:      "nine characters rejected",
			prefix:    "abcdefghi",
			setupMock: func(mockRepo *testhelpers.MockGuildSettingsRepository) {},
			wantErr:   ErrInvalidPrefix,
		},
		{
			name:   "repository error",
			prefix: "$",
			setupMock: func(mockRepo *testhelpers.MockGuildSettingsRepository) {
				mockRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(100)).
					Return(nil, errors.New("database connection failed"))
			},
			errContains: "failed to get guild settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockRepo := new(testhelpers.MockGuildSettingsRepository)
			tt.setupMock(mockRepo)
			publisher := &testhelpers.RecordingEventPublisher{}

			service := NewGuildSettingsService(mockRepo, publisher)
			err := service.SetPrefix(context.Background(), 100, tt.prefix, 7)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			default:
				assert.NoError(t, err)
			}

			if tt.wantEvent {
				published := publisher.Published()
				require.Len(t, published, 1)
				event := published[0].(events.PrefixChangedEvent)
				assert.Equal(t, tt.prefix, event.NewPrefix)
				assert.Equal(t, int64(7), event.ChangedBy)
			} else {
				assert.Empty(t, publisher.Published())
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGuildSettingsService_GetPrefix(t *testing.T) {
	t.Parallel()

	mockRepo := new(testhelpers.MockGuildSettingsRepository)
	mockRepo.On("GetGuildSettings", mock.Anything, int64(1)).
		Return(&entities.GuildSettings{GuildID: 1}, nil)
	mockRepo.On("GetGuildSettings", mock.Anything, int64(2)).
		Return(&entities.GuildSettings{GuildID: 2, Prefix: strPtr(">>")}, nil)

	service := NewGuildSettingsService(mockRepo, &testhelpers.RecordingEventPublisher{})

	prefix, err := service.GetPrefix(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "", prefix)

	prefix, err = service.GetPrefix(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, ">>", prefix)
}

func TestGuildSettingsService_ReadsDoNotCreateSettings(t *testing.T) {
	t.Parallel()

	mockRepo := new(testhelpers.MockGuildSettingsRepository)
	mockRepo.On("GetGuildSettings", mock.Anything, int64(6)).Return(nil, nil)

	service := NewGuildSettingsService(mockRepo, &testhelpers.RecordingEventPublisher{})
	ctx := context.Background()

	settings, err := service.GetSettings(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, settings)

	prefix, err := service.GetPrefix(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, prefix)

	logs, err := service.GetChannel(ctx, 6, entities.ChannelKindLogs)
	require.NoError(t, err)
	assert.Nil(t, logs)

	image, err := service.GetBackgroundImage(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, image)

	mockRepo.AssertNotCalled(t, "GetOrCreateGuildSettings", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateGuildSettings", mock.Anything, mock.Anything)
}

func TestGuildSettingsService_ReadErrorIsWrapped(t *testing.T) {
	t.Parallel()

	mockRepo := new(testhelpers.MockGuildSettingsRepository)
	mockRepo.On("GetGuildSettings", mock.Anything, int64(7)).Return(nil, errors.New("connection reset"))

	service := NewGuildSettingsService(mockRepo, &testhelpers.RecordingEventPublisher{})
	_, err := service.GetPrefix(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get guild settings")
}

func TestGuildSettingsService_Channels(t *testing.T) {
	t.Parallel()

	settings := &entities.GuildSettings{GuildID: 5}
	mockRepo := new(testhelpers.MockGuildSettingsRepository)
	mockRepo.On("GetGuildSettings", mock.Anything, int64(5)).Return(settings, nil)
	mockRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(5)).Return(settings, nil)
	mockRepo.On("UpdateGuildSettings", mock.Anything, settings).Return(nil)

	service := NewGuildSettingsService(mockRepo, &testhelpers.RecordingEventPublisher{})
	ctx := context.Background()

	require.NoError(t, service.SetChannel(ctx, 5, entities.ChannelKindLogs, 900))
	logs, err := service.GetChannel(ctx, 5, entities.ChannelKindLogs)
	require.NoError(t, err)
	require.NotNil(t, logs)
	assert.Equal(t, int64(900), *logs)

	welcome, err := service.GetChannel(ctx, 5, entities.ChannelKindWelcome)
	require.NoError(t, err)
	assert.Nil(t, welcome)

	require.NoError(t, service.ClearChannel(ctx, 5, entities.ChannelKindLogs))
	logs, err = service.GetChannel(ctx, 5, entities.ChannelKindLogs)
	require.NoError(t, err)
	assert.Nil(t, logs)
}

func TestGuildSettingsService_SetBackgroundImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https url", url: "https://example.com/cape.png"},
		{name: "http url", url: "http://example.com/cape.png"},
		{name: "missing scheme", url: "example.com/cape.png", wantErr: true},
		{name: "other scheme", url: "ftp://example.com/cape.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockRepo := new(testhelpers.MockGuildSettingsRepository)
			if !tt.wantErr {
				mockRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(3)).
					Return(&entities.GuildSettings{GuildID: 3}, nil)
				mockRepo.On("UpdateGuildSettings", mock.Anything, mock.MatchedBy(func(s *entities.GuildSettings) bool {
					return s.BackgroundImageURL != nil && *s.BackgroundImageURL == tt.url
				})).Return(nil)
			}

			service := NewGuildSettingsService(mockRepo, &testhelpers.RecordingEventPublisher{})
			err := service.SetBackgroundImage(context.Background(), 3, tt.url)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImageURL)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
