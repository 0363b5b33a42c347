package general

import (
	"context"
	"fmt"
	"strings"

	"questhelper/bot/common"
	"questhelper/bot/router"

	"github.com/bwmarrin/discordgo"
)

const installImageURL = "https://cdn.discordapp.com/attachments/854379120624271380/881180710151532654/Howtoinstall.jpg"

// Feature serves informational commands
type Feature struct {
	session  *discordgo.Session
	commands func() []*router.Command
}

// NewFeature creates the general feature. commands lists everything
// registered so help can describe it.
func NewFeature(session *discordgo.Session, commands func() []*router.Command) *Feature {
	return &Feature{
		session:  session,
		commands: commands,
	}
}

// Commands returns the commands served by this feature
func (f *Feature) Commands() []*router.Command {
	return []*router.Command{
		{
			Name:        "quest",
			Description: "Say hello",
			Handler:     f.handleQuest,
		},
		{
			Name:        "install",
			Aliases:     []string{"howtoinstall", "howdoiinstall"},
			Description: "How to install Quest Helper",
			Handler:     f.handleInstall,
		},
		{
			Name:        "help",
			Aliases:     []string{"commands"},
			Description: "List available commands",
			Handler:     f.handleHelp,
		},
	}
}

func (f *Feature) handleQuest(ctx context.Context, req *router.Request) error {
	name := "unknown"
	if user, err := f.session.User(common.FormatID(req.Message.AuthorID)); err == nil {
		name = user.Username
	}

	_, err := common.Reply(f.session, req.Message.ChannelID, fmt.Sprintf("You are -> [%s]\nI must now say, World!", name))
	return err
}

func (f *Feature) handleInstall(ctx context.Context, req *router.Request) error {
	embed := common.NewEmbed(
		"How to install Quest Helper",
		"Open RuneLite and click on the gear for 'Configuration'. Next, select the 'Plugin Hub' at the bottom of the list. "+
			"Type 'Quest Helper' into the search bar, verify that it is by Zoinkwiz, and press install.",
		common.ColorInfo,
	)
	embed.Image = &discordgo.MessageEmbedImage{URL: installImageURL}

	_, err := common.ReplyEmbed(f.session, req.Message.ChannelID, embed)
	return err
}

func (f *Feature) handleHelp(ctx context.Context, req *router.Request) error {
	var sb strings.Builder
	for _, cmd := range f.commands() {
		sb.WriteString("`")
		sb.WriteString(cmd.Name)
		if cmd.Usage != "" {
			sb.WriteString(" ")
			sb.WriteString(cmd.Usage)
		}
		sb.WriteString("`")
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(cmd.Aliases, ", "))
		}
		if cmd.Description != "" {
			sb.WriteString(" - ")
			sb.WriteString(cmd.Description)
		}
		sb.WriteString("\n")
	}

	_, err := common.ReplyEmbed(f.session, req.Message.ChannelID, common.NewEmbed("Commands", sb.String(), common.ColorPrimary))
	return err
}
