package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"questhelper/domain/entities"
)

var (
	channelMentionPattern = regexp.MustCompile(`^<#(\d+)>$`)
	userMentionPattern    = regexp.MustCompile(`^<@!?(\d+)>$`)
	roleMentionPattern    = regexp.MustCompile(`^<@&(\d+)>$`)
)

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatDiaryLine renders one diary for listings
func FormatDiaryLine(diary *entities.Diary) string {
	return fmt.Sprintf("%s **%s** - %s", diary.Status.Emoji(), diary.Name, diary.Status.DisplayName())
}

// FormatControlMessage is the text of a diary's control message
func FormatControlMessage(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** achievement diary\n", name)
	sb.WriteString("React to update its status:\n")
	for _, emoji := range entities.ControlEmojis() {
		status, _ := entities.StatusForEmoji(emoji)
		fmt.Fprintf(&sb, "%s %s\n", emoji, status.DisplayName())
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// ParseChannelMention accepts "<#id>" or a bare id
func ParseChannelMention(s string) (int64, bool) {
	return parseMention(channelMentionPattern, s)
}

// ParseUserMention accepts "<@id>", "<@!id>" or a bare id
func ParseUserMention(s string) (int64, bool) {
	return parseMention(userMentionPattern, s)
}

// ParseRoleMention accepts "<@&id>" or a bare id
func ParseRoleMention(s string) (int64, bool) {
	return parseMention(roleMentionPattern, s)
}

func parseMention(pattern *regexp.Regexp, s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if m := pattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
