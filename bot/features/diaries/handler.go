package diaries

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

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleList(ctx context.Context, req *router.Request) error {
	var diaries []*entities.Diary
	err := f.withDiaryService(ctx, req.Message.GuildID, func(svc interfaces.DiaryService) error {
		var err error
		diaries, err = svc.ListDiaries(ctx)
		return err
	})
	if err != nil {
		return err
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID, buildDiaryListEmbed(diaries))
	return err
}

func (f *Feature) handleAdd(ctx context.Context, req *router.Request) error {
	name := req.Args
	if name == "" {
		return common.NewUserError("Please provide a name for the diary.", "adddiary without a name")
	}

	// Check before posting so a duplicate does not leave an orphan control message
	err := f.withDiaryService(ctx, req.Message.GuildID, func(svc interfaces.DiaryService) error {
		return svc.EnsureNameAvailable(ctx, name)
	})
	if err != nil {
		return diaryError(err, name)
	}

	authorName := common.GetUserMention(req.Message.AuthorID)
	control, err := common.ReplyEmbed(f.session, req.Message.ChannelID, buildControlPanelEmbed(name, authorName))
	if err != nil {
		return err
	}

	controlID, err := common.ParseID(control.ID)
	if err != nil {
		return fmt.Errorf("failed to parse control message id: %w", err)
	}

	err = f.withDiaryService(ctx, req.Message.GuildID, func(svc interfaces.DiaryService) error {
		_, err := svc.CreateDiary(ctx, req.Message.GuildID, req.Message.ChannelID, controlID, req.Message.AuthorID, name)
		return err
	})
	if err != nil {
		if delErr := f.session.ChannelMessageDelete(control.ChannelID, control.ID); delErr != nil {
			log.WithFields(log.Fields{
				"channel_id": control.ChannelID,
				"message_id": control.ID,
				"error":      delErr,
			}).Warn("Failed to remove orphaned control message")
		}
		return diaryError(err, name)
	}

	for _, emoji := range entities.ControlEmojis() {
		if err := f.session.MessageReactionAdd(control.ChannelID, control.ID, emoji); err != nil {
			log.WithFields(log.Fields{
				"message_id": control.ID,
				"emoji":      emoji,
				"error":      err,
			}).Warn("Failed to seed control reaction")
		}
	}

	log.WithFields(log.Fields{
		"guild_id":   req.Message.GuildID,
		"diary":      name,
		"message_id": controlID,
		"user_id":    req.Message.AuthorID,
	}).Info("Diary created")
	return nil
}

func (f *Feature) handleDelete(ctx context.Context, req *router.Request) error {
	name := req.Args
	if name == "" {
		return common.NewUserError("Please provide the name of the diary to delete.", "deldiary without a name")
	}

	err := f.withDiaryService(ctx, req.Message.GuildID, func(svc interfaces.DiaryService) error {
		_, err := svc.DeleteDiary(ctx, name)
		return err
	})
	if err != nil {
		return diaryError(err, name)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID,
		common.NewEmbed("Diary Deleted", fmt.Sprintf("Successfully deleted the Achievement Diary: `%s`", name), common.ColorSuccess))
	return err
}

func (f *Feature) handleRename(ctx context.Context, req *router.Request) error {
	oldName, newName, ok := strings.Cut(req.Args, " ")
	newName = strings.TrimSpace(newName)
	if !ok || oldName == "" || newName == "" {
		return common.NewUserError("Please pass the current name and the new name, e.g. `editdiaryname Varrock Varrock Hard`.", "editdiaryname with missing arguments")
	}

	err := f.withDiaryService(ctx, req.Message.GuildID, func(svc interfaces.DiaryService) error {
		_, err := svc.RenameDiary(ctx, oldName, newName)
		return err
	})
	if err != nil {
		return diaryError(err, oldName)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID,
		common.NewEmbed("Diary Renamed", fmt.Sprintf("Diary `%s` has been renamed to `%s`", oldName, newName), common.ColorSuccess))
	return err
}

func (f *Feature) handleSetStatus(ctx context.Context, req *router.Request) error {
	name, status, ok := splitNameAndStatus(req.Args)
	if !ok {
		return common.NewUserError("Please pass a diary name followed by a status (no progress, in development, pr submitted, live).", "setdiarystatus with invalid arguments")
	}

	var diary *entities.Diary
	err := f.withDiaryService(ctx, req.Message.GuildID, func(svc interfaces.DiaryService) error {
		var err error
		diary, err = svc.SetStatus(ctx, name, status, req.Message.AuthorID)
		return err
	})
	if err != nil {
		return diaryError(err, name)
	}

	_, err = common.Reply(f.session, req.Message.ChannelID, common.FormatDiaryLine(diary))
	return err
}

// splitNameAndStatus reads a status from the end of args, preferring the
// longest trailing phrase that parses
func splitNameAndStatus(args string) (string, entities.DiaryStatus, bool) {
	fields := strings.Fields(args)
	for k := min(3, len(fields)-1); k >= 1; k-- {
		if status, ok := entities.ParseDiaryStatus(strings.Join(fields[len(fields)-k:], " ")); ok {
			return strings.Join(fields[:len(fields)-k], " "), status, true
		}
	}
	return "", "", false
}

func diaryError(err error, name string) error {
	switch {
	case errors.Is(err, services.ErrDiaryExists):
		return common.NewUserError(fmt.Sprintf("The Achievement Diary `%s` already exists!", name), err.Error())
	case errors.Is(err, services.ErrDiaryNotFound):
		return common.NewUserError(fmt.Sprintf("Diary `%s` not found! Is it a valid diary or have you spelled it correctly?", name), err.Error())
	case errors.Is(err, services.ErrInvalidName):
		return common.NewUserError("Please provide a diary name.", err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		return common.NewUserError("That is not a valid diary status.", err.Error())
	default:
		return err
	}
}

func buildDiaryListEmbed(diaries []*entities.Diary) *discordgo.MessageEmbed {
	if len(diaries) == 0 {
		return common.NewEmbed("Achievement Diaries", "There are no Achievement Diaries yet. Add one with `adddiary`.", common.ColorWarning)
	}

	embed := common.NewEmbed("Achievement Diaries",
		"No ETAs are provided on Achievement Diaries - work is continuing as fast as we can!", common.ColorPrimary)
	for _, diary := range diaries {
		if len(embed.Fields) == 25 {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   diary.Name,
			Value:  fmt.Sprintf("%s %s", diary.Status.Emoji(), diary.Status.DisplayName()),
			Inline: true,
		})
	}
	return embed
}

func buildControlPanelEmbed(name, addedBy string) *discordgo.MessageEmbed {
	embed := common.NewEmbed(
		fmt.Sprintf("%s Achievement Diary Status Control Panel", name),
		common.FormatControlMessage(name)+
			"\n\nThis panel does not update with the current status; use `diaries` to check it.",
		common.ColorInfo,
	)
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "Diary Added By:", Value: addedBy}}
	return embed
}
