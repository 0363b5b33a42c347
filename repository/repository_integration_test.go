package repository

import (
	"context"
	"sync"
	"testing"

	"questhelper/application"
	"questhelper/domain/entities"
	"questhelper/domain/services"
	"questhelper/events"
	"questhelper/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// inUnit runs fn inside a committed unit of work for guildID
func inUnit(t *testing.T, factory application.UnitOfWorkFactory, guildID int64, fn func(uow application.UnitOfWork)) {
	t.Helper()
	uow := factory.CreateForGuild(guildID)
	require.NoError(t, uow.Begin(context.Background()))
	defer uow.Rollback()
	fn(uow)
	require.NoError(t, uow.Commit())
}

func TestRepositories_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	publisher := &capturePublisher{}
	factory := NewUnitOfWorkFactory(testDB.DB, publisher)
	ctx := context.Background()

	t.Run("guild settings created lazily and updated", func(t *testing.T) {
		inUnit(t, factory, 1, func(uow application.UnitOfWork) {
			repo := uow.GuildSettingsRepository()

			missing, err := repo.GetGuildSettings(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, missing, "reads do not create settings")

			settings, err := repo.GetOrCreateGuildSettings(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, settings.Prefix)

			prefix := "?"
			logs := int64(555)
			settings.Prefix = &prefix
			settings.LogsChannelID = &logs
			require.NoError(t, repo.UpdateGuildSettings(ctx, settings))

			again, err := repo.GetOrCreateGuildSettings(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, again.Prefix)
			assert.Equal(t, "?", *again.Prefix)
			assert.Equal(t, int64(555), *again.LogsChannelID)
		})
	})

	t.Run("diary lifecycle", func(t *testing.T) {
		diary := entities.NewDiary(2, 20, 2001, 42, "Varrock")

		inUnit(t, factory, 2, func(uow application.UnitOfWork) {
			require.NoError(t, uow.DiaryRepository().Create(ctx, diary))
		})

		inUnit(t, factory, 2, func(uow application.UnitOfWork) {
			repo := uow.DiaryRepository()

			found, err := repo.GetByControlMessageID(ctx, 2001)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, diary.ID, found.ID)
			assert.Equal(t, entities.DiaryStatusNoProgress, found.Status)

			require.NoError(t, repo.UpdateStatus(ctx, diary.ID, entities.DiaryStatusLive))
			require.NoError(t, repo.UpdateStatus(ctx, diary.ID, entities.DiaryStatusLive))

			found, err = repo.GetByName(ctx, "Varrock")
			require.NoError(t, err)
			assert.Equal(t, entities.DiaryStatusLive, found.Status)

			require.NoError(t, repo.Rename(ctx, diary.ID, "Varrock Hard"))
			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "Varrock Hard", all[0].Name)
		})

		inUnit(t, factory, 3, func(uow application.UnitOfWork) {
			other, err := uow.DiaryRepository().GetByControlMessageID(ctx, 2001)
			require.NoError(t, err)
			assert.Nil(t, other, "diaries are guild scoped")
		})

		inUnit(t, factory, 2, func(uow application.UnitOfWork) {
			require.NoError(t, uow.DiaryRepository().Delete(ctx, diary.ID))
			gone, err := uow.DiaryRepository().GetByID(ctx, diary.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})
	})

	t.Run("diary round trip through reactions", func(t *testing.T) {
		const guildID = int64(8)
		machine := application.NewReactionStateMachine(factory)

		inUnit(t, factory, guildID, func(uow application.UnitOfWork) {
			_, err := services.NewDiaryService(uow.DiaryRepository(), uow.EventBus()).
				CreateDiary(ctx, guildID, 80, 8001, 42, "Varrock")
			require.NoError(t, err)
		})

		outcome, err := machine.OnReaction(ctx, application.Reaction{
			GuildID:   guildID,
			ChannelID: 80,
			MessageID: 8001,
			UserID:    43,
			Emoji:     entities.EmojiGreenCircle,
		})
		require.NoError(t, err)
		assert.Equal(t, application.ReactionApplied, outcome.Result)

		inUnit(t, factory, guildID, func(uow application.UnitOfWork) {
			svc := services.NewDiaryService(uow.DiaryRepository(), uow.EventBus())
			diary, err := svc.GetByName(ctx, "Varrock")
			require.NoError(t, err)
			assert.Equal(t, entities.DiaryStatusLive, diary.Status)

			_, err = svc.DeleteDiary(ctx, "Varrock")
			require.NoError(t, err)
		})

		inUnit(t, factory, guildID, func(uow application.UnitOfWork) {
			diaries, err := services.NewDiaryService(uow.DiaryRepository(), uow.EventBus()).ListDiaries(ctx)
			require.NoError(t, err)
			assert.Empty(t, diaries)
		})
	})

	t.Run("duplicate diary name violates constraint", func(t *testing.T) {
		inUnit(t, factory, 4, func(uow application.UnitOfWork) {
			require.NoError(t, uow.DiaryRepository().Create(ctx, entities.NewDiary(4, 1, 4001, 1, "Karamja")))
		})

		uow := factory.CreateForGuild(4)
		require.NoError(t, uow.Begin(ctx))
		err := uow.DiaryRepository().Create(ctx, entities.NewDiary(4, 1, 4002, 1, "Karamja"))
		assert.Error(t, err)
		require.NoError(t, uow.Rollback())
	})

	t.Run("role references", func(t *testing.T) {
		inUnit(t, factory, 5, func(uow application.UnitOfWork) {
			repo := uow.RoleReferenceRepository()
			require.NoError(t, repo.Add(ctx, entities.RoleKindRank, 100))
			require.NoError(t, repo.Add(ctx, entities.RoleKindRank, 200))
			require.NoError(t, repo.Add(ctx, entities.RoleKindRank, 100))
			require.NoError(t, repo.Add(ctx, entities.RoleKindAutoRole, 300))
		})

		inUnit(t, factory, 5, func(uow application.UnitOfWork) {
			repo := uow.RoleReferenceRepository()

			ranks, err := repo.List(ctx, entities.RoleKindRank)
			require.NoError(t, err)
			require.Len(t, ranks, 2)
			assert.Equal(t, int64(100), ranks[0].RoleID)
			assert.Equal(t, int64(200), ranks[1].RoleID)

			require.NoError(t, repo.RemoveBatch(ctx, []int64{ranks[0].ID, ranks[1].ID}))
			ranks, err = repo.List(ctx, entities.RoleKindRank)
			require.NoError(t, err)
			assert.Empty(t, ranks)

			removed, err := repo.Remove(ctx, entities.RoleKindAutoRole, 300)
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = repo.Remove(ctx, entities.RoleKindAutoRole, 300)
			require.NoError(t, err)
			assert.False(t, removed)
		})
	})

	t.Run("faqs", func(t *testing.T) {
		inUnit(t, factory, 6, func(uow application.UnitOfWork) {
			repo := uow.FAQRepository()
			faq := &entities.FAQ{Name: "install", Content: "Use the plugin hub", OwnerID: 9}
			require.NoError(t, repo.Create(ctx, faq))
			assert.NotZero(t, faq.ID)

			require.NoError(t, repo.UpdateContent(ctx, faq.ID, "Search the plugin hub"))
			require.NoError(t, repo.UpdateOwner(ctx, faq.ID, 10))

			got, err := repo.Get(ctx, "install")
			require.NoError(t, err)
			assert.Equal(t, "Search the plugin hub", got.Content)
			assert.Equal(t, int64(10), got.OwnerID)

			list, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)

			require.NoError(t, repo.Delete(ctx, faq.ID))
			missing, err := repo.Get(ctx, "install")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	})

	t.Run("events flushed on commit and discarded on rollback", func(t *testing.T) {
		before := publisher.count()

		uow := factory.CreateForGuild(7)
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.EventBus().Publish(events.PrefixChangedEvent{GuildID: 7, NewPrefix: "?"}))
		require.NoError(t, uow.Rollback())
		assert.Equal(t, before, publisher.count())

		uow = factory.CreateForGuild(7)
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.EventBus().Publish(events.PrefixChangedEvent{GuildID: 7, NewPrefix: "?"}))
		require.NoError(t, uow.Commit())
		assert.Equal(t, before+1, publisher.count())
	})
}
