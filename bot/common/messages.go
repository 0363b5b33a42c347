package common

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// NewEmbed builds a plain embed with the bot's styling
func NewEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: Truncate(description, 4096),
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// Reply sends a text message to a channel, truncated to Discord's limit
func Reply(s *discordgo.Session, channelID int64, content string) (*discordgo.Message, error) {
	msg, err := s.ChannelMessageSend(FormatID(channelID), Truncate(content, MaxMessageLength))
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// ReplyEmbed sends an embed to a channel
func ReplyEmbed(s *discordgo.Session, channelID int64, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := s.ChannelMessageSendEmbed(FormatID(channelID), embed)
	if err != nil {
		return nil, fmt.Errorf("failed to send embed: %w", err)
	}
	return msg, nil
}

// ReplyFailure reports a routing failure back to the channel it came from
func ReplyFailure(s *discordgo.Session, channelID int64, reason string) {
	if _, err := Reply(s, channelID, "❌ "+reason); err != nil {
		log.WithFields(log.Fields{
			"channel_id": channelID,
			"error":      err,
		}).Error("Failed to send failure reply")
	}
}

// ParseID converts a Discord snowflake string to int64
func ParseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// FormatID converts an int64 snowflake to its string form
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID int64) string {
	return "<@" + FormatID(userID) + ">"
}

// GetChannelMention returns a Discord mention string for a channel
func GetChannelMention(channelID int64) string {
	return "<#" + FormatID(channelID) + ">"
}

// GetRoleMention returns a Discord mention string for a role
func GetRoleMention(roleID int64) string {
	return "<@&" + FormatID(roleID) + ">"
}

// IsRESTErrorCode reports whether err is a Discord REST error with the given code
func IsRESTErrorCode(err error, code int) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == code
}
