package entities

import "time"

// FAQ is a named, guild-scoped answer owned by the member who created it
type FAQ struct {
	ID        int64     `db:"id"`
	GuildID   int64     `db:"guild_id"`
	Name      string    `db:"name"`
	Content   string    `db:"content"`
	OwnerID   int64     `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsOwnedBy reports whether the user owns this entry
func (f *FAQ) IsOwnedBy(userID int64) bool {
	return f.OwnerID == userID
}
