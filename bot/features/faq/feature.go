package faq

import (
	"context"
	"fmt"

	"questhelper/application"
	"questhelper/bot/router"
	"questhelper/domain/interfaces"
	"questhelper/domain/services"

	"github.com/bwmarrin/discordgo"
)

// Feature serves guild FAQ entries
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	promoted   router.Precondition
}

// NewFeature creates a new FAQ feature. Members holding one of
// promotedRoleIDs, or Administrator, may create entries.
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, promotedRoleIDs []int64) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		promoted:   router.RequireAnyRole("contributor", promotedRoleIDs...),
	}
}

// Commands returns the commands served by this feature
func (f *Feature) Commands() []*router.Command {
	guildOnly := []router.Precondition{router.RequireGuild()}

	return []*router.Command{
		{
			Name:          "faqs",
			Description:   "List the server's FAQs",
			Preconditions: guildOnly,
			Handler:       f.handleList,
		},
		{
			Name:          "faq",
			Aliases:       []string{"f"},
			Usage:         "<name> | create <name> <content> | edit <name> <content> | transfer <name> <@user> | delete <name>",
			Description:   "View or manage an FAQ",
			Preconditions: guildOnly,
			Handler:       f.handleFAQ,
		},
	}
}

// withFAQService runs fn inside a guild-scoped unit of work and commits on success
func (f *Feature) withFAQService(ctx context.Context, guildID int64, fn func(svc interfaces.FAQService) error) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	faqService := services.NewFAQService(uow.FAQRepository())
	if err := fn(faqService); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
