package entities

// GuildSettings represents per-guild configuration settings
type GuildSettings struct {
	GuildID            int64   `db:"guild_id"`
	Prefix             *string `db:"prefix"`               // Nullable - falls back to the default prefix
	WelcomeChannelID   *int64  `db:"welcome_channel_id"`   // Nullable - channel greeted on member join
	LogsChannelID      *int64  `db:"logs_channel_id"`      // Nullable - channel receiving audit lines
	BackgroundImageURL *string `db:"background_image_url"` // Nullable - quest point cape background
}

// ChannelKind selects one of the configurable guild channels
type ChannelKind string

const (
	ChannelKindWelcome ChannelKind = "welcome"
	ChannelKindLogs    ChannelKind = "logs"
)

// HasPrefix checks if a custom prefix is configured
func (gs *GuildSettings) HasPrefix() bool {
	return gs.Prefix != nil && *gs.Prefix != ""
}

// PrefixOr returns the stored prefix or the given fallback
func (gs *GuildSettings) PrefixOr(fallback string) string {
	if gs.HasPrefix() {
		return *gs.Prefix
	}
	return fallback
}

// Channel returns the configured channel of the given kind
func (gs *GuildSettings) Channel(kind ChannelKind) *int64 {
	switch kind {
	case ChannelKindWelcome:
		return gs.WelcomeChannelID
	case ChannelKindLogs:
		return gs.LogsChannelID
	}
	return nil
}

// SetChannel sets the channel of the given kind; nil clears it
func (gs *GuildSettings) SetChannel(kind ChannelKind, channelID *int64) {
	switch kind {
	case ChannelKindWelcome:
		gs.WelcomeChannelID = channelID
	case ChannelKindLogs:
		gs.LogsChannelID = channelID
	}
}
