package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"questhelper/bot/common"
	"questhelper/bot/router"
	"questhelper/domain/entities"
	"questhelper/domain/services"

	log "github.com/sirupsen/logrus"
)

func (f *Feature) listHandler(kind entities.RoleKind) router.Handler {
	return func(ctx context.Context, req *router.Request) error {
		roles, err := f.resolve(ctx, req.Message.GuildID, kind)
		if err != nil {
			return reconcileError(err)
		}

		if len(roles) == 0 {
			_, err = common.Reply(f.session, req.Message.ChannelID, fmt.Sprintf("This server does not yet have any %ss!", kind.DisplayName()))
			return err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "This message lists all %ss.\nUse the role name to add or remove one.", kind.DisplayName())
		for _, role := range roles {
			fmt.Fprintf(&sb, "\n%s (%d)", common.GetRoleMention(role.ID), role.ID)
		}

		_, err = common.Reply(f.session, req.Message.ChannelID, sb.String())
		return err
	}
}

func (f *Feature) addHandler(kind entities.RoleKind) router.Handler {
	return func(ctx context.Context, req *router.Request) error {
		guildID := req.Message.GuildID

		role, err := f.lookupRole(ctx, guildID, req.Args)
		if err != nil {
			return err
		}

		botPosition, err := f.snapshot.GetBotHierarchyPosition(ctx, guildID)
		if err != nil {
			return reconcileError(fmt.Errorf("%w: %w", services.ErrReconciliationUnavailable, err))
		}
		if role.Position > botPosition {
			return common.NewUserError("That role has a higher position than the bot!", "role above bot")
		}
		if role.Managed {
			return common.NewUserError("That role is managed by an integration and cannot be assigned.", "managed role")
		}

		uow := f.uowFactory.CreateForGuild(guildID)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		reconciler := services.NewRoleReconciler(f.snapshot, uow.RoleReferenceRepository(), uow.EventBus())
		current, err := reconciler.ResolveRoles(ctx, guildID, kind)
		if err != nil {
			return reconcileError(err)
		}
		if containsRole(current, role.ID) {
			return common.NewUserError(fmt.Sprintf("That role is already one of the %ss!", kind.DisplayName()), "duplicate role reference")
		}

		if err := uow.RoleReferenceRepository().Add(ctx, kind, role.ID); err != nil {
			return fmt.Errorf("failed to add %s: %w", kind, err)
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		log.WithFields(log.Fields{
			"guild_id": guildID,
			"role_id":  role.ID,
			"kind":     kind,
		}).Info("Role reference added")

		_, err = common.Reply(f.session, req.Message.ChannelID,
			fmt.Sprintf("The role %s has been added to the %ss!", common.GetRoleMention(role.ID), kind.DisplayName()))
		return err
	}
}

func (f *Feature) removeHandler(kind entities.RoleKind) router.Handler {
	return func(ctx context.Context, req *router.Request) error {
		guildID := req.Message.GuildID

		role, err := f.lookupRole(ctx, guildID, req.Args)
		if err != nil {
			return err
		}

		uow := f.uowFactory.CreateForGuild(guildID)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		removed, err := uow.RoleReferenceRepository().Remove(ctx, kind, role.ID)
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", kind, err)
		}
		if !removed {
			return common.NewUserError(fmt.Sprintf("That role is not one of the %ss yet!", kind.DisplayName()), "role reference missing")
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		log.WithFields(log.Fields{
			"guild_id": guildID,
			"role_id":  role.ID,
			"kind":     kind,
		}).Info("Role reference removed")

		_, err = common.Reply(f.session, req.Message.ChannelID,
			fmt.Sprintf("The role %s has been removed from the %ss!", common.GetRoleMention(role.ID), kind.DisplayName()))
		return err
	}
}

func (f *Feature) resolve(ctx context.Context, guildID int64, kind entities.RoleKind) ([]entities.Role, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reconciler := services.NewRoleReconciler(f.snapshot, uow.RoleReferenceRepository(), uow.EventBus())
	roles, err := reconciler.ResolveRoles(ctx, guildID, kind)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return roles, nil
}

func (f *Feature) lookupRole(ctx context.Context, guildID int64, query string) (*entities.Role, error) {
	if query == "" {
		return nil, common.NewUserError("Please provide the name of a role.", "missing role name")
	}

	roles, err := f.snapshot.ListRoles(ctx, guildID)
	if err != nil {
		return nil, reconcileError(fmt.Errorf("%w: %w", services.ErrReconciliationUnavailable, err))
	}

	role := findRole(roles, query)
	if role == nil {
		return nil, common.NewUserError("That role does not exist!", fmt.Sprintf("unknown role %q", query))
	}
	return role, nil
}

// findRole matches a role by name, ignoring case, then by mention or id
func findRole(roles []entities.Role, query string) *entities.Role {
	query = strings.TrimSpace(query)
	for i := range roles {
		if strings.EqualFold(roles[i].Name, query) {
			return &roles[i]
		}
	}

	if id, ok := common.ParseRoleMention(query); ok {
		for i := range roles {
			if roles[i].ID == id {
				return &roles[i]
			}
		}
	}
	return nil
}

func containsRole(roles []entities.Role, roleID int64) bool {
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func reconcileError(err error) error {
	if errors.Is(err, services.ErrReconciliationUnavailable) {
		return &common.BotError{
			UserMessage: "I couldn't read this server's roles right now. Please try again later.",
			LogMessage:  "role snapshot unavailable",
			Err:         err,
		}
	}
	return err
}
