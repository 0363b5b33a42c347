package roles

import (
	"questhelper/application"
	"questhelper/bot/router"
	"questhelper/domain/entities"
	"questhelper/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

// Feature manages ranks and auto-roles
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	snapshot   interfaces.RoleSnapshotProvider
}

// NewFeature creates a new roles feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, snapshot interfaces.RoleSnapshotProvider) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		snapshot:   snapshot,
	}
}

// Commands returns the commands served by this feature
func (f *Feature) Commands() []*router.Command {
	admin := []router.Precondition{
		router.RequireGuild(),
		router.RequireUserPermission(discordgo.PermissionAdministrator, "Administrator"),
	}
	manage := append(admin[:len(admin):len(admin)],
		router.RequireBotPermission(discordgo.PermissionManageRoles, "Manage Roles"))

	return []*router.Command{
		{
			Name:          "ranks",
			Description:   "List the server's ranks",
			Preconditions: []router.Precondition{router.RequireGuild()},
			Handler:       f.listHandler(entities.RoleKindRank),
		},
		{
			Name:          "addrank",
			Usage:         "<role name>",
			Description:   "Add a role to the ranks",
			Preconditions: manage,
			Handler:       f.addHandler(entities.RoleKindRank),
		},
		{
			Name:          "delrank",
			Usage:         "<role name>",
			Description:   "Remove a role from the ranks",
			Preconditions: manage,
			Handler:       f.removeHandler(entities.RoleKindRank),
		},
		{
			Name:          "autoroles",
			Description:   "List roles granted to new members",
			Preconditions: admin,
			Handler:       f.listHandler(entities.RoleKindAutoRole),
		},
		{
			Name:          "addautorole",
			Usage:         "<role name>",
			Description:   "Grant a role to every new member",
			Preconditions: manage,
			Handler:       f.addHandler(entities.RoleKindAutoRole),
		},
		{
			Name:          "delautorole",
			Usage:         "<role name>",
			Description:   "Stop granting a role to new members",
			Preconditions: manage,
			Handler:       f.removeHandler(entities.RoleKindAutoRole),
		},
	}
}
