package interfaces

import (
	"context"

	"questhelper/domain/entities"

	"github.com/google/uuid"
)

// GuildSettingsRepository persists per-guild configuration
type GuildSettingsRepository interface {
	// GetGuildSettings returns nil when nothing is stored for the guild
	GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)
	GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)
	UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error
}

// DiaryRepository persists achievement diaries. All methods are scoped to
// the guild the repository was created for.
type DiaryRepository interface {
	Create(ctx context.Context, diary *entities.Diary) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Diary, error)
	// GetByControlMessageID returns nil, nil when no diary owns the message
	GetByControlMessageID(ctx context.Context, messageID int64) (*entities.Diary, error)
	// GetByName returns nil, nil when no diary has the name
	GetByName(ctx context.Context, name string) (*entities.Diary, error)
	ListAll(ctx context.Context) ([]*entities.Diary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.DiaryStatus) error
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoleReferenceRepository persists role references for a guild
type RoleReferenceRepository interface {
	// List returns references of the kind in insertion order
	List(ctx context.Context, kind entities.RoleKind) ([]*entities.RoleReference, error)
	// Add stores a reference; adding an existing one is a no-op
	Add(ctx context.Context, kind entities.RoleKind, roleID int64) error
	// Remove deletes the reference and reports whether it existed
	Remove(ctx context.Context, kind entities.RoleKind, roleID int64) (bool, error)
	// RemoveBatch deletes the references with the given ids in one statement
	RemoveBatch(ctx context.Context, ids []int64) error
}

// FAQRepository persists guild FAQ entries
type FAQRepository interface {
	// Get returns nil, nil when the entry does not exist
	Get(ctx context.Context, name string) (*entities.FAQ, error)
	List(ctx context.Context) ([]*entities.FAQ, error)
	Create(ctx context.Context, faq *entities.FAQ) error
	UpdateContent(ctx context.Context, id int64, content string) error
	UpdateOwner(ctx context.Context, id int64, ownerID int64) error
	Delete(ctx context.Context, id int64) error
}
