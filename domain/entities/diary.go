package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiaryStatus is the progress state of an achievement diary
type DiaryStatus string

const (
	DiaryStatusNoProgress    DiaryStatus = "no_progress"
	DiaryStatusInDevelopment DiaryStatus = "in_development"
	DiaryStatusPRSubmitted   DiaryStatus = "pr_submitted"
	DiaryStatusLive          DiaryStatus = "live"
)

// Reaction emoji used on diary control messages
const (
	EmojiRedCircle    = "🔴"
	EmojiYellowCircle = "🟡"
	EmojiPurpleCircle = "🟣"
	EmojiGreenCircle  = "🟢"
)

var emojiStatuses = map[string]DiaryStatus{
	EmojiRedCircle:    DiaryStatusNoProgress,
	EmojiYellowCircle: DiaryStatusInDevelopment,
	EmojiPurpleCircle: DiaryStatusPRSubmitted,
	EmojiGreenCircle:  DiaryStatusLive,
}

// ControlEmojis returns the reactions seeded on a new control message, in display order
func ControlEmojis() []string {
	return []string{EmojiRedCircle, EmojiYellowCircle, EmojiPurpleCircle, EmojiGreenCircle}
}

// StatusForEmoji maps a reaction to its diary status. Only the four circle
// emoji are recognized.
func StatusForEmoji(emoji string) (DiaryStatus, bool) {
	status, ok := emojiStatuses[emoji]
	return status, ok
}

// ParseDiaryStatus accepts a status name, a colour or one of the circle emoji
func ParseDiaryStatus(s string) (DiaryStatus, bool) {
	if status, ok := StatusForEmoji(s); ok {
		return status, true
	}

	normalized := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case "noprogress", "none", "red":
		return DiaryStatusNoProgress, true
	case "indevelopment", "indev", "development", "yellow":
		return DiaryStatusInDevelopment, true
	case "prsubmitted", "pr", "submitted", "purple":
		return DiaryStatusPRSubmitted, true
	case "live", "done", "green":
		return DiaryStatusLive, true
	}
	return "", false
}

// IsValid reports whether the status is one of the four known states
func (s DiaryStatus) IsValid() bool {
	switch s {
	case DiaryStatusNoProgress, DiaryStatusInDevelopment, DiaryStatusPRSubmitted, DiaryStatusLive:
		return true
	}
	return false
}

// Emoji returns the circle emoji representing the status
func (s DiaryStatus) Emoji() string {
	for emoji, status := range emojiStatuses {
		if status == s {
			return emoji
		}
	}
	return "❔"
}

// DisplayName returns a human readable label
func (s DiaryStatus) DisplayName() string {
	switch s {
	case DiaryStatusNoProgress:
		return "No Progress"
	case DiaryStatusInDevelopment:
		return "In Development"
	case DiaryStatusPRSubmitted:
		return "PR Submitted"
	case DiaryStatusLive:
		return "Live"
	default:
		return "Unknown"
	}
}

// Diary is an achievement diary tracked through reactions on its control message
type Diary struct {
	ID               uuid.UUID   `db:"id"`
	GuildID          int64       `db:"guild_id"`
	ControlMessageID int64       `db:"control_message_id"`
	ControlChannelID int64       `db:"control_channel_id"`
	InitiatorID      int64       `db:"initiator_id"`
	Name             string      `db:"name"`
	Status           DiaryStatus `db:"status"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

// NewDiary creates a diary in the NoProgress state with a fresh id
func NewDiary(guildID, controlChannelID, controlMessageID, initiatorID int64, name string) *Diary {
	return &Diary{
		ID:               uuid.New(),
		GuildID:          guildID,
		ControlMessageID: controlMessageID,
		ControlChannelID: controlChannelID,
		InitiatorID:      initiatorID,
		Name:             name,
		Status:           DiaryStatusNoProgress,
	}
}
