package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
	"questhelper/events"
)

// MaxPrefixLength is the longest prefix a guild may configure
const MaxPrefixLength = 8

// guildSettingsService implements the GuildSettingsService interface
type guildSettingsService struct {
	guildSettingsRepo interfaces.GuildSettingsRepository
	eventPublisher    interfaces.EventPublisher
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(guildSettingsRepo interfaces.GuildSettingsRepository, eventPublisher interfaces.EventPublisher) interfaces.GuildSettingsService {
	return &guildSettingsService{
		guildSettingsRepo: guildSettingsRepo,
		eventPublisher:    eventPublisher,
	}
}

// ValidatePrefix checks a candidate prefix without storing it
func ValidatePrefix(prefix string) error {
	n := utf8.RuneCountInString(prefix)
	if n < 1 || n > MaxPrefixLength {
		return ErrInvalidPrefix
	}
	return nil
}

// GetSettings retrieves stored guild settings without creating them
func (s *guildSettingsService) GetSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	settings, err := s.guildSettingsRepo.GetGuildSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return settings, nil
}

func (s *guildSettingsService) GetPrefix(ctx context.Context, guildID int64) (string, error) {
	settings, err := s.GetSettings(ctx, guildID)
	if err != nil || settings == nil {
		return "", err
	}
	return settings.PrefixOr(""), nil
}

// SetPrefix stores a new prefix after validating its length
func (s *guildSettingsService) SetPrefix(ctx context.Context, guildID int64, prefix string, changedBy int64) error {
	if err := ValidatePrefix(prefix); err != nil {
		return err
	}

	settings, err := s.guildSettingsRepo.GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}

	oldPrefix := settings.PrefixOr("")
	settings.Prefix = &prefix

	if err := s.guildSettingsRepo.UpdateGuildSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PrefixChangedEvent{
		GuildID:   guildID,
		OldPrefix: oldPrefix,
		NewPrefix: prefix,
		ChangedBy: changedBy,
	}); err != nil {
		return fmt.Errorf("failed to publish prefix changed event: %w", err)
	}

	return nil
}

func (s *guildSettingsService) GetChannel(ctx context.Context, guildID int64, kind entities.ChannelKind) (*int64, error) {
	settings, err := s.GetSettings(ctx, guildID)
	if err != nil || settings == nil {
		return nil, err
	}
	return settings.Channel(kind), nil
}

func (s *guildSettingsService) SetChannel(ctx context.Context, guildID int64, kind entities.ChannelKind, channelID int64) error {
	return s.updateChannel(ctx, guildID, kind, &channelID)
}

func (s *guildSettingsService) ClearChannel(ctx context.Context, guildID int64, kind entities.ChannelKind) error {
	return s.updateChannel(ctx, guildID, kind, nil)
}

func (s *guildSettingsService) updateChannel(ctx context.Context, guildID int64, kind entities.ChannelKind, channelID *int64) error {
	settings, err := s.guildSettingsRepo.GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}

	settings.SetChannel(kind, channelID)

	if err := s.guildSettingsRepo.UpdateGuildSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}
	return nil
}

func (s *guildSettingsService) GetBackgroundImage(ctx context.Context, guildID int64) (*string, error) {
	settings, err := s.GetSettings(ctx, guildID)
	if err != nil || settings == nil {
		return nil, err
	}
	return settings.BackgroundImageURL, nil
}

// SetBackgroundImage stores an absolute http(s) image URL
func (s *guildSettingsService) SetBackgroundImage(ctx context.Context, guildID int64, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, rawURL)
	}
	return s.updateBackgroundImage(ctx, guildID, &rawURL)
}

func (s *guildSettingsService) ClearBackgroundImage(ctx context.Context, guildID int64) error {
	return s.updateBackgroundImage(ctx, guildID, nil)
}

func (s *guildSettingsService) updateBackgroundImage(ctx context.Context, guildID int64, imageURL *string) error {
	settings, err := s.guildSettingsRepo.GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}

	settings.BackgroundImageURL = imageURL

	if err := s.guildSettingsRepo.UpdateGuildSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}
	return nil
}
