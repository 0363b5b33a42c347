package guildconfig

import (
	"context"
	"fmt"

	"questhelper/application"
	"questhelper/bot/router"
	"questhelper/domain/interfaces"
	"questhelper/domain/services"

	"github.com/bwmarrin/discordgo"
)

// ChannelChecker verifies that a channel belongs to a guild
type ChannelChecker interface {
	ChannelExists(guildID, channelID int64) bool
}

// Feature handles guild settings management
type Feature struct {
	session       *discordgo.Session
	uowFactory    application.UnitOfWorkFactory
	prefixes      *application.PrefixStore
	channels      ChannelChecker
	defaultPrefix string
}

// NewFeature creates a new guild config feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, prefixes *application.PrefixStore, channels ChannelChecker, defaultPrefix string) *Feature {
	return &Feature{
		session:       session,
		uowFactory:    uowFactory,
		prefixes:      prefixes,
		channels:      channels,
		defaultPrefix: defaultPrefix,
	}
}

// Commands returns the commands served by this feature
func (f *Feature) Commands() []*router.Command {
	admin := []router.Precondition{
		router.RequireGuild(),
		router.RequireUserPermission(discordgo.PermissionAdministrator, "Administrator"),
	}

	return []*router.Command{
		{
			Name:          "prefix",
			Usage:         "[new prefix]",
			Description:   "Show or change the command prefix",
			Preconditions: admin,
			Handler:       f.handlePrefix,
		},
		{
			Name:          "welcome",
			Usage:         "[channel <#channel> | clear]",
			Description:   "Show or set the welcome channel",
			Preconditions: admin,
			Handler:       f.handleWelcome,
		},
		{
			Name:          "logs",
			Usage:         "[<#channel> | clear]",
			Description:   "Show, set or clear the logs channel",
			Preconditions: admin,
			Handler:       f.handleLogs,
		},
		{
			Name:          "qpcimage",
			Usage:         "<url | clear>",
			Description:   "Set or clear the quest point cape background image",
			Preconditions: admin,
			Handler:       f.handleImage,
		},
	}
}

// withSettingsService runs fn inside a guild-scoped unit of work and commits on success
func (f *Feature) withSettingsService(ctx context.Context, guildID int64, fn func(svc interfaces.GuildSettingsService) error) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	guildSettingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository(), uow.EventBus())
	if err := fn(guildSettingsService); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
