package application

import (
	"context"
	"errors"
	"fmt"

	"questhelper/domain/entities"
	"questhelper/domain/services"
	"questhelper/events"

	log "github.com/sirupsen/logrus"
)

// ErrLogChannelMissing is returned by a LogPoster when the target channel no
// longer exists
var ErrLogChannelMissing = errors.New("log channel no longer exists")

// LogPoster posts a line of text to a channel
type LogPoster interface {
	PostLog(ctx context.Context, channelID int64, content string) error
}

// LogChannelNotifier mirrors selected domain events into a guild's logs channel
type LogChannelNotifier struct {
	uowFactory UnitOfWorkFactory
	poster     LogPoster
}

// NewLogChannelNotifier creates a new notifier
func NewLogChannelNotifier(uowFactory UnitOfWorkFactory, poster LogPoster) *LogChannelNotifier {
	return &LogChannelNotifier{
		uowFactory: uowFactory,
		poster:     poster,
	}
}

// Handle posts the event to the logs channel of its guild, if one is set
func (n *LogChannelNotifier) Handle(ctx context.Context, event events.Event) {
	guildID, line, ok := formatLogLine(event)
	if !ok {
		return
	}

	channelID, err := n.logsChannel(ctx, guildID)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"error":    err,
		}).Error("Failed to read logs channel")
		return
	}
	if channelID == nil {
		return
	}

	err = n.poster.PostLog(ctx, *channelID, line)
	switch {
	case errors.Is(err, ErrLogChannelMissing):
		log.WithFields(log.Fields{
			"guild_id":   guildID,
			"channel_id": *channelID,
		}).Warn("Logs channel is gone, clearing setting")
		if err := n.clearLogsChannel(ctx, guildID); err != nil {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"error":    err,
			}).Error("Failed to clear logs channel")
		}
	case err != nil:
		log.WithFields(log.Fields{
			"guild_id":   guildID,
			"channel_id": *channelID,
			"error":      err,
		}).Warn("Failed to post to logs channel")
	}
}

func (n *LogChannelNotifier) logsChannel(ctx context.Context, guildID int64) (*int64, error) {
	uow := n.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository(), uow.EventBus())
	channelID, err := settingsService.GetChannel(ctx, guildID, entities.ChannelKindLogs)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return channelID, nil
}

func (n *LogChannelNotifier) clearLogsChannel(ctx context.Context, guildID int64) error {
	uow := n.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository(), uow.EventBus())
	if err := settingsService.ClearChannel(ctx, guildID, entities.ChannelKindLogs); err != nil {
		return err
	}
	return uow.Commit()
}

func formatLogLine(event events.Event) (int64, string, bool) {
	switch e := event.(type) {
	case events.PrefixChangedEvent:
		old := e.OldPrefix
		if old == "" {
			old = "(default)"
		}
		return e.GuildID, fmt.Sprintf("<@%d> changed the prefix from `%s` to `%s`", e.ChangedBy, old, e.NewPrefix), true
	case events.DiaryStatusChangedEvent:
		return e.GuildID, fmt.Sprintf("<@%d> set **%s** to %s %s", e.ChangedBy, e.Name, e.NewStatus.Emoji(), e.NewStatus.DisplayName()), true
	default:
		return 0, "", false
	}
}
