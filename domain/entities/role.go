package entities

// Role is a point-in-time view of a guild role
type Role struct {
	ID       int64
	Name     string
	Position int
	Managed  bool
}

// RoleKind distinguishes the purposes a stored role reference can serve
type RoleKind string

const (
	RoleKindAutoRole RoleKind = "auto_role"
	RoleKindRank     RoleKind = "rank"
)

// DisplayName returns a human readable label for the kind
func (k RoleKind) DisplayName() string {
	switch k {
	case RoleKindAutoRole:
		return "auto-role"
	case RoleKindRank:
		return "rank"
	}
	return string(k)
}

// RoleReference is a stored pointer to a guild role. The referenced role may
// have been deleted or moved since it was stored.
type RoleReference struct {
	ID      int64    `db:"id"`
	GuildID int64    `db:"guild_id"`
	RoleID  int64    `db:"role_id"`
	Kind    RoleKind `db:"kind"`
}
