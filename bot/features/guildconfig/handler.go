package guildconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"questhelper/bot/common"
	"questhelper/bot/router"
	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
	"questhelper/domain/services"

	log "github.com/sirupsen/logrus"
)

func (f *Feature) handlePrefix(ctx context.Context, req *router.Request) error {
	guildID := req.Message.GuildID

	if req.Args == "" {
		prefix, err := f.prefixes.GetPrefix(ctx, guildID)
		if err != nil {
			return err
		}
		if prefix == "" {
			prefix = f.defaultPrefix
		}
		_, err = common.Reply(f.session, req.Message.ChannelID, fmt.Sprintf("The current prefix of this bot is `%s`.", prefix))
		return err
	}

	prefix := req.Args
	if err := f.prefixes.SetPrefix(ctx, guildID, prefix, req.Message.AuthorID); err != nil {
		if errors.Is(err, services.ErrInvalidPrefix) {
			return common.NewUserError(fmt.Sprintf("The prefix must be between 1 and %d characters.", services.MaxPrefixLength), err.Error())
		}
		return err
	}

	_, err := common.Reply(f.session, req.Message.ChannelID, fmt.Sprintf("The prefix has been adjusted to `%s`.", prefix))
	return err
}

func (f *Feature) handleWelcome(ctx context.Context, req *router.Request) error {
	option, value, _ := strings.Cut(req.Args, " ")
	value = strings.TrimSpace(value)

	switch {
	case option == "":
		return f.showChannel(ctx, req, entities.ChannelKindWelcome)
	case strings.EqualFold(option, "clear"):
		return f.clearChannel(ctx, req, entities.ChannelKindWelcome)
	case strings.EqualFold(option, "channel") && value != "":
		return f.setChannel(ctx, req, entities.ChannelKindWelcome, value)
	default:
		return common.NewUserError("You did not use this command properly. Try `welcome channel #channel`.", "welcome with invalid arguments")
	}
}

func (f *Feature) handleLogs(ctx context.Context, req *router.Request) error {
	switch {
	case req.Args == "":
		return f.showChannel(ctx, req, entities.ChannelKindLogs)
	case strings.EqualFold(req.Args, "clear"):
		return f.clearChannel(ctx, req, entities.ChannelKindLogs)
	default:
		return f.setChannel(ctx, req, entities.ChannelKindLogs, req.Args)
	}
}

func (f *Feature) showChannel(ctx context.Context, req *router.Request, kind entities.ChannelKind) error {
	guildID := req.Message.GuildID

	var channelID *int64
	var background *string
	err := f.withSettingsService(ctx, guildID, func(svc interfaces.GuildSettingsService) error {
		var err error
		if channelID, err = svc.GetChannel(ctx, guildID, kind); err != nil {
			return err
		}
		if channelID != nil && !f.channels.ChannelExists(guildID, *channelID) {
			log.WithFields(log.Fields{
				"guild_id":   guildID,
				"channel_id": *channelID,
				"kind":       kind,
			}).Info("Configured channel no longer exists, clearing")
			channelID = nil
			return svc.ClearChannel(ctx, guildID, kind)
		}
		if kind == entities.ChannelKindWelcome {
			background, err = svc.GetBackgroundImage(ctx, guildID)
		}
		return err
	})
	if err != nil {
		return err
	}

	var reply string
	switch {
	case channelID == nil:
		reply = fmt.Sprintf("There has not been set a %s channel yet!", kind)
	case background != nil:
		reply = fmt.Sprintf("The channel used for the %s module is %s.\nThe background is set to %s.", kind, common.GetChannelMention(*channelID), *background)
	default:
		reply = fmt.Sprintf("The channel used for the %s module is %s.", kind, common.GetChannelMention(*channelID))
	}

	_, err = common.Reply(f.session, req.Message.ChannelID, reply)
	return err
}

func (f *Feature) setChannel(ctx context.Context, req *router.Request, kind entities.ChannelKind, raw string) error {
	guildID := req.Message.GuildID

	channelID, ok := common.ParseChannelMention(raw)
	if !ok || !f.channels.ChannelExists(guildID, channelID) {
		return common.NewUserError("Please pass in a valid channel!", fmt.Sprintf("invalid %s channel %q", kind, raw))
	}

	err := f.withSettingsService(ctx, guildID, func(svc interfaces.GuildSettingsService) error {
		return svc.SetChannel(ctx, guildID, kind, channelID)
	})
	if err != nil {
		return err
	}

	_, err = common.Reply(f.session, req.Message.ChannelID,
		fmt.Sprintf("Successfully modified the %s channel to %s.", kind, common.GetChannelMention(channelID)))
	return err
}

func (f *Feature) clearChannel(ctx context.Context, req *router.Request, kind entities.ChannelKind) error {
	guildID := req.Message.GuildID

	err := f.withSettingsService(ctx, guildID, func(svc interfaces.GuildSettingsService) error {
		return svc.ClearChannel(ctx, guildID, kind)
	})
	if err != nil {
		return err
	}

	_, err = common.Reply(f.session, req.Message.ChannelID, fmt.Sprintf("Successfully cleared the %s channel.", kind))
	return err
}

func (f *Feature) handleImage(ctx context.Context, req *router.Request) error {
	guildID := req.Message.GuildID

	switch {
	case req.Args == "":
		var url *string
		err := f.withSettingsService(ctx, guildID, func(svc interfaces.GuildSettingsService) error {
			var err error
			url, err = svc.GetBackgroundImage(ctx, guildID)
			return err
		})
		if err != nil {
			return err
		}
		reply := "No Quest Cape Image is set for this server, the backup image is used instead."
		if url != nil {
			reply = fmt.Sprintf("The Quest Cape Image is set to %s.", *url)
		}
		_, err = common.Reply(f.session, req.Message.ChannelID, reply)
		return err

	case strings.EqualFold(req.Args, "clear"):
		err := f.withSettingsService(ctx, guildID, func(svc interfaces.GuildSettingsService) error {
			return svc.ClearBackgroundImage(ctx, guildID)
		})
		if err != nil {
			return err
		}
		_, err = common.Reply(f.session, req.Message.ChannelID,
			"Successfully cleared the Quest Cape Image for this server, the backup image will be used instead.")
		return err

	default:
		err := f.withSettingsService(ctx, guildID, func(svc interfaces.GuildSettingsService) error {
			return svc.SetBackgroundImage(ctx, guildID, req.Args)
		})
		if err != nil {
			if errors.Is(err, services.ErrInvalidImageURL) {
				return common.NewUserError("Please pass a valid http(s) image URL.", err.Error())
			}
			return err
		}
		_, err = common.Reply(f.session, req.Message.ChannelID, fmt.Sprintf("Successfully modified the Quest Cape Image to %s.", req.Args))
		return err
	}
}
