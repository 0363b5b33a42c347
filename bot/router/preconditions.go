package router

import (
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Precondition inspects a message before its handler runs. It returns false
// and a user-facing reason when the invocation must be rejected.
type Precondition func(msg Message) (reason string, ok bool)

// RequireGuild rejects direct messages
func RequireGuild() Precondition {
	return func(msg Message) (string, bool) {
		if msg.GuildID == 0 {
			return "This command can only be used in a server.", false
		}
		return "", true
	}
}

// RequireUserPermission rejects invokers missing perm. Administrator implies
// every permission.
func RequireUserPermission(perm int64, label string) Precondition {
	return func(msg Message) (string, bool) {
		if hasPermission(msg.Capabilities.Permissions, perm) {
			return "", true
		}
		return fmt.Sprintf("You need the **%s** permission to use this command.", label), false
	}
}

// RequireBotPermission rejects the invocation when the bot itself lacks perm
func RequireBotPermission(perm int64, label string) Precondition {
	return func(msg Message) (string, bool) {
		if hasPermission(msg.Capabilities.BotPermissions, perm) {
			return "", true
		}
		return fmt.Sprintf("I need the **%s** permission to do that.", label), false
	}
}

// RequireAnyRole rejects invokers holding none of roleIDs
func RequireAnyRole(label string, roleIDs ...int64) Precondition {
	return func(msg Message) (string, bool) {
		for _, id := range msg.Capabilities.RoleIDs {
			if slices.Contains(roleIDs, id) {
				return "", true
			}
		}
		return fmt.Sprintf("You need the **%s** role to use this command.", label), false
	}
}

// IsAdministrator reports whether the invoker has the Administrator permission
func (c Capabilities) IsAdministrator() bool {
	return c.Permissions&discordgo.PermissionAdministrator != 0
}

func hasPermission(granted, perm int64) bool {
	if granted&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return granted&perm == perm
}
