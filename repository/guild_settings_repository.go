package repository

import (
	"context"
	"errors"
	"fmt"

	"questhelper/database"
	"questhelper/domain/entities"

	"github.com/jackc/pgx/v5"
)

const guildSettingsColumns = `guild_id, prefix, welcome_channel_id, logs_channel_id, background_image_url`

// GuildSettingsRepository implements the GuildSettingsRepository interface
type GuildSettingsRepository struct {
	q Queryable
}

// NewGuildSettingsRepository creates a guild settings repository on the pool
func NewGuildSettingsRepository(db *database.DB) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: db.Pool}
}

// NewGuildSettingsRepositoryWithTx creates a guild settings repository bound to a transaction
func NewGuildSettingsRepositoryWithTx(tx Queryable) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: tx}
}

func scanGuildSettings(row pgx.Row) (*entities.GuildSettings, error) {
	var settings entities.GuildSettings
	err := row.Scan(
		&settings.GuildID,
		&settings.Prefix,
		&settings.WelcomeChannelID,
		&settings.LogsChannelID,
		&settings.BackgroundImageURL,
	)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetGuildSettings retrieves guild settings, returning nil when the guild has none stored
func (r *GuildSettingsRepository) GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	query := `SELECT ` + guildSettingsColumns + ` FROM guild_settings WHERE guild_id = $1`

	settings, err := scanGuildSettings(r.q.QueryRow(ctx, query, guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings for guild %d: %w", guildID, err)
	}
	return settings, nil
}

// GetOrCreateGuildSettings retrieves guild settings or creates empty ones if not found
func (r *GuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	settings, err := r.GetGuildSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	// ON CONFLICT covers two first-time lookups racing on the insert
	insertQuery := `
		INSERT INTO guild_settings (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING ` + guildSettingsColumns

	settings, err = scanGuildSettings(r.q.QueryRow(ctx, insertQuery, guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to create guild settings for guild %d: %w", guildID, err)
	}

	return settings, nil
}

// UpdateGuildSettings updates guild settings
func (r *GuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error {
	query := `
		UPDATE guild_settings
		SET prefix = $2,
		    welcome_channel_id = $3,
		    logs_channel_id = $4,
		    background_image_url = $5,
		    updated_at = NOW()
		WHERE guild_id = $1
	`

	result, err := r.q.Exec(ctx, query,
		settings.GuildID,
		settings.Prefix,
		settings.WelcomeChannelID,
		settings.LogsChannelID,
		settings.BackgroundImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild settings for guild %d: %w", settings.GuildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild settings for guild %d not found", settings.GuildID)
	}

	return nil
}
