package interfaces

import (
	"context"

	"questhelper/domain/entities"
	"questhelper/events"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// RoleSnapshotProvider answers questions about the live state of a guild.
// Results may be stale; callers treat them as a snapshot.
type RoleSnapshotProvider interface {
	ListRoles(ctx context.Context, guildID int64) ([]entities.Role, error)
	// GetBotHierarchyPosition returns the position of the bot's highest role
	GetBotHierarchyPosition(ctx context.Context, guildID int64) (int, error)
	GetMemberRoles(ctx context.Context, guildID, userID int64) ([]int64, error)
}

// GuildSettingsService manages per-guild configuration
type GuildSettingsService interface {
	// GetSettings returns nil when nothing is stored for the guild. Reads never
	// create a row; the first write does.
	GetSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)
	// GetPrefix returns the stored prefix, or an empty string when none is set
	GetPrefix(ctx context.Context, guildID int64) (string, error)
	SetPrefix(ctx context.Context, guildID int64, prefix string, changedBy int64) error
	GetChannel(ctx context.Context, guildID int64, kind entities.ChannelKind) (*int64, error)
	SetChannel(ctx context.Context, guildID int64, kind entities.ChannelKind, channelID int64) error
	ClearChannel(ctx context.Context, guildID int64, kind entities.ChannelKind) error
	GetBackgroundImage(ctx context.Context, guildID int64) (*string, error)
	SetBackgroundImage(ctx context.Context, guildID int64, url string) error
	ClearBackgroundImage(ctx context.Context, guildID int64) error
}

// DiaryService manages achievement diaries
type DiaryService interface {
	CreateDiary(ctx context.Context, guildID, channelID, messageID, initiatorID int64, name string) (*entities.Diary, error)
	// EnsureNameAvailable returns ErrDiaryExists when the name is taken
	EnsureNameAvailable(ctx context.Context, name string) error
	GetByName(ctx context.Context, name string) (*entities.Diary, error)
	ListDiaries(ctx context.Context) ([]*entities.Diary, error)
	DeleteDiary(ctx context.Context, name string) (*entities.Diary, error)
	RenameDiary(ctx context.Context, oldName, newName string) (*entities.Diary, error)
	SetStatus(ctx context.Context, name string, status entities.DiaryStatus, changedBy int64) (*entities.Diary, error)
	// ApplyReaction maps a reaction on a control message to a status write.
	// It returns ErrUnrecognizedEmoji or ErrUnknownControlMessage without
	// writing anything when the reaction does not apply.
	ApplyReaction(ctx context.Context, messageID, userID int64, emoji string) (*entities.Diary, error)
}

// RoleReconciler validates stored role references against live guild state
type RoleReconciler interface {
	ResolveRoles(ctx context.Context, guildID int64, kind entities.RoleKind) ([]entities.Role, error)
}

// FAQService manages guild FAQ entries
type FAQService interface {
	Get(ctx context.Context, name string) (*entities.FAQ, error)
	List(ctx context.Context) ([]*entities.FAQ, error)
	Create(ctx context.Context, guildID int64, name, content string, ownerID int64) (*entities.FAQ, error)
	Edit(ctx context.Context, name, content string, actorID int64, actorIsAdmin bool) (*entities.FAQ, error)
	Transfer(ctx context.Context, name string, newOwnerID, actorID int64, actorIsAdmin bool) (*entities.FAQ, error)
	Delete(ctx context.Context, name string, actorID int64, actorIsAdmin bool) (*entities.FAQ, error)
}
