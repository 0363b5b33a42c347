package diaries

import (
	"context"
	"fmt"

	"questhelper/application"
	"questhelper/bot/router"
	"questhelper/domain/interfaces"
	"questhelper/domain/services"

	"github.com/bwmarrin/discordgo"
)

// Feature manages achievement diaries and their control messages
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
}

// NewFeature creates a new diaries feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
	}
}

// Commands returns the commands served by this feature
func (f *Feature) Commands() []*router.Command {
	manageChannels := []router.Precondition{
		router.RequireGuild(),
		router.RequireUserPermission(discordgo.PermissionManageChannels, "Manage Channels"),
	}

	return []*router.Command{
		{
			Name:          "diaries",
			Aliases:       []string{"diary", "ad"},
			Description:   "List achievement diaries and their status",
			Preconditions: []router.Precondition{router.RequireGuild()},
			Handler:       f.handleList,
		},
		{
			Name:          "adddiary",
			Usage:         "<name>",
			Description:   "Create a diary and its status control panel",
			Preconditions: manageChannels,
			Handler:       f.handleAdd,
		},
		{
			Name:          "deldiary",
			Usage:         "<name>",
			Description:   "Delete a diary",
			Preconditions: manageChannels,
			Handler:       f.handleDelete,
		},
		{
			Name:          "editdiaryname",
			Usage:         "<name> <new name>",
			Description:   "Rename a diary",
			Preconditions: manageChannels,
			Handler:       f.handleRename,
		},
		{
			Name:          "setdiarystatus",
			Usage:         "<name> <status>",
			Description:   "Set a diary's status directly",
			Preconditions: manageChannels,
			Handler:       f.handleSetStatus,
		},
	}
}

// withDiaryService runs fn inside a guild-scoped unit of work and commits on success
func (f *Feature) withDiaryService(ctx context.Context, guildID int64, fn func(svc interfaces.DiaryService) error) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	diaryService := services.NewDiaryService(uow.DiaryRepository(), uow.EventBus())
	if err := fn(diaryService); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
