package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"questhelper/domain/entities"
	"questhelper/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingLogPoster struct {
	mu    sync.Mutex
	posts map[int64][]string
	err   error
}

func (p *recordingLogPoster) PostLog(ctx context.Context, channelID int64, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.posts == nil {
		p.posts = make(map[int64][]string)
	}
	p.posts[channelID] = append(p.posts[channelID], content)
	return nil
}

func TestLogChannelNotifier_PostsToLogsChannel(t *testing.T) {
	logsChannel := int64(555)
	tests := []struct {
		name     string
		event    events.Event
		contains string
	}{
		{
			name:     "prefix changed",
			event:    events.PrefixChangedEvent{GuildID: testGuildID, NewPrefix: "?", ChangedBy: testUserID},
			contains: "from `(default)` to `?`",
		},
		{
			name: "diary status changed",
			event: events.DiaryStatusChangedEvent{
				DiaryID:   uuid.New(),
				GuildID:   testGuildID,
				Name:      "Varrock",
				OldStatus: entities.DiaryStatusNoProgress,
				NewStatus: entities.DiaryStatusLive,
				ChangedBy: testUserID,
			},
			contains: "**Varrock**",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := newFakeUnitOfWork()
			uow.settings.On("GetGuildSettings", mock.Anything, testGuildID).
				Return(&entities.GuildSettings{GuildID: testGuildID, LogsChannelID: &logsChannel}, nil)
			poster := &recordingLogPoster{}

			notifier := NewLogChannelNotifier(&fakeUnitOfWorkFactory{uow: uow}, poster)
			notifier.Handle(context.Background(), tt.event)

			require.Len(t, poster.posts[logsChannel], 1)
			assert.Contains(t, poster.posts[logsChannel][0], tt.contains)
		})
	}
}

func TestLogChannelNotifier_SkipsWhenUnset(t *testing.T) {
	uow := newFakeUnitOfWork()
	uow.settings.On("GetGuildSettings", mock.Anything, testGuildID).Return(nil, nil)
	poster := &recordingLogPoster{}

	notifier := NewLogChannelNotifier(&fakeUnitOfWorkFactory{uow: uow}, poster)
	notifier.Handle(context.Background(), events.PrefixChangedEvent{GuildID: testGuildID, NewPrefix: "?"})

	assert.Empty(t, poster.posts)
}

func TestLogChannelNotifier_IgnoresOtherEvents(t *testing.T) {
	uow := newFakeUnitOfWork()
	notifier := NewLogChannelNotifier(&fakeUnitOfWorkFactory{uow: uow}, &recordingLogPoster{})

	notifier.Handle(context.Background(), events.DiaryDeletedEvent{GuildID: testGuildID, Name: "Varrock"})

	begins, _ := uow.counts()
	assert.Zero(t, begins)
}

func TestLogChannelNotifier_ClearsMissingChannel(t *testing.T) {
	logsChannel := int64(555)
	settings := &entities.GuildSettings{GuildID: testGuildID, LogsChannelID: &logsChannel}

	uow := newFakeUnitOfWork()
	uow.settings.On("GetGuildSettings", mock.Anything, testGuildID).Return(settings, nil)
	uow.settings.On("GetOrCreateGuildSettings", mock.Anything, testGuildID).Return(settings, nil)
	uow.settings.On("UpdateGuildSettings", mock.Anything, mock.MatchedBy(func(s *entities.GuildSettings) bool {
		return s.LogsChannelID == nil
	})).Return(nil).Once()

	poster := &recordingLogPoster{err: ErrLogChannelMissing}
	notifier := NewLogChannelNotifier(&fakeUnitOfWorkFactory{uow: uow}, poster)
	notifier.Handle(context.Background(), events.PrefixChangedEvent{GuildID: testGuildID, NewPrefix: "?"})

	uow.settings.AssertExpectations(t)
	assert.Nil(t, settings.LogsChannelID)
}

func TestLogChannelNotifier_KeepsChannelOnOtherErrors(t *testing.T) {
	logsChannel := int64(555)
	uow := newFakeUnitOfWork()
	uow.settings.On("GetGuildSettings", mock.Anything, testGuildID).
		Return(&entities.GuildSettings{GuildID: testGuildID, LogsChannelID: &logsChannel}, nil)

	poster := &recordingLogPoster{err: errors.New("rate limited")}
	notifier := NewLogChannelNotifier(&fakeUnitOfWorkFactory{uow: uow}, poster)
	notifier.Handle(context.Background(), events.PrefixChangedEvent{GuildID: testGuildID, NewPrefix: "?"})

	uow.settings.AssertNotCalled(t, "UpdateGuildSettings", mock.Anything, mock.Anything)
}
