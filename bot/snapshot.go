package bot

import (
	"context"
	"fmt"
	"strconv"

	"questhelper/application"
	"questhelper/bot/common"
	"questhelper/bot/router"
	"questhelper/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// sessionGateway answers live guild questions from the discordgo state cache,
// falling back to REST calls when the cache is cold
type sessionGateway struct {
	session *discordgo.Session
}

func newSessionGateway(session *discordgo.Session) *sessionGateway {
	return &sessionGateway{session: session}
}

func (g *sessionGateway) guildRoles(guildID int64) ([]*discordgo.Role, error) {
	id := common.FormatID(guildID)
	if guild, err := g.session.State.Guild(id); err == nil && len(guild.Roles) > 0 {
		return guild.Roles, nil
	}

	roles, err := g.session.GuildRoles(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles for guild %d: %w", guildID, err)
	}
	return roles, nil
}

func (g *sessionGateway) member(guildID int64, userID string) (*discordgo.Member, error) {
	id := common.FormatID(guildID)
	if member, err := g.session.State.Member(id, userID); err == nil {
		return member, nil
	}

	member, err := g.session.GuildMember(id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %s of guild %d: %w", userID, guildID, err)
	}
	return member, nil
}

// ListRoles returns every role of the guild
func (g *sessionGateway) ListRoles(ctx context.Context, guildID int64) ([]entities.Role, error) {
	roles, err := g.guildRoles(guildID)
	if err != nil {
		return nil, err
	}

	result := make([]entities.Role, 0, len(roles))
	for _, role := range roles {
		id, err := strconv.ParseInt(role.ID, 10, 64)
		if err != nil {
			continue
		}
		result = append(result, entities.Role{
			ID:       id,
			Name:     role.Name,
			Position: role.Position,
			Managed:  role.Managed,
		})
	}
	return result, nil
}

// GetBotHierarchyPosition returns the position of the bot's highest role
func (g *sessionGateway) GetBotHierarchyPosition(ctx context.Context, guildID int64) (int, error) {
	if g.session.State.User == nil {
		return 0, fmt.Errorf("session is not ready")
	}

	member, err := g.member(guildID, g.session.State.User.ID)
	if err != nil {
		return 0, err
	}

	roles, err := g.guildRoles(guildID)
	if err != nil {
		return 0, err
	}

	positions := make(map[string]int, len(roles))
	for _, role := range roles {
		positions[role.ID] = role.Position
	}

	highest := 0
	for _, roleID := range member.Roles {
		if pos, ok := positions[roleID]; ok && pos > highest {
			highest = pos
		}
	}
	return highest, nil
}

// GetMemberRoles returns the role ids held by a member
func (g *sessionGateway) GetMemberRoles(ctx context.Context, guildID, userID int64) ([]int64, error) {
	member, err := g.member(guildID, common.FormatID(userID))
	if err != nil {
		return nil, err
	}
	return parseIDs(member.Roles), nil
}

// AddMemberRole grants a role to a guild member
func (g *sessionGateway) AddMemberRole(ctx context.Context, guildID, userID, roleID int64) error {
	err := g.session.GuildMemberRoleAdd(common.FormatID(guildID), common.FormatID(userID), common.FormatID(roleID))
	if err != nil {
		return fmt.Errorf("failed to add role %d to member %d: %w", roleID, userID, err)
	}
	return nil
}

// PostLog sends a line to a logs channel
func (g *sessionGateway) PostLog(ctx context.Context, channelID int64, content string) error {
	_, err := common.ReplyEmbed(g.session, channelID, common.NewEmbed("Log", content, common.ColorInfo))
	if common.IsRESTErrorCode(err, discordgo.ErrCodeUnknownChannel) {
		return fmt.Errorf("%w: %d", application.ErrLogChannelMissing, channelID)
	}
	return err
}

// capabilities computes what the author and the bot may do in a channel
func (g *sessionGateway) capabilities(m *discordgo.MessageCreate) router.Capabilities {
	var caps router.Capabilities
	if m.GuildID == "" {
		return caps
	}

	perms, err := g.session.State.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		perms, err = g.session.UserChannelPermissions(m.Author.ID, m.ChannelID)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id": m.GuildID,
			"user_id":  m.Author.ID,
			"error":    err,
		}).Warn("Failed to compute member permissions")
	}
	caps.Permissions = perms

	if g.session.State.User != nil {
		botPerms, err := g.session.State.UserChannelPermissions(g.session.State.User.ID, m.ChannelID)
		if err != nil {
			botPerms, _ = g.session.UserChannelPermissions(g.session.State.User.ID, m.ChannelID)
		}
		caps.BotPermissions = botPerms
	}

	if m.Member != nil {
		caps.RoleIDs = parseIDs(m.Member.Roles)
	}
	return caps
}

// ChannelExists reports whether the channel is a known channel of the guild
func (g *sessionGateway) ChannelExists(guildID, channelID int64) bool {
	channel, err := g.session.State.Channel(common.FormatID(channelID))
	if err != nil {
		channel, err = g.session.Channel(common.FormatID(channelID))
	}
	return err == nil && channel.GuildID == common.FormatID(guildID)
}

func parseIDs(ids []string) []int64 {
	result := make([]int64, 0, len(ids))
	for _, raw := range ids {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}
