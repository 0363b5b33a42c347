package bot

import (
	"context"
	"fmt"
	"time"

	"questhelper/application"
	"questhelper/bot/common"
	"questhelper/bot/features/diaries"
	"questhelper/bot/features/faq"
	"questhelper/bot/features/general"
	"questhelper/bot/features/guildconfig"
	"questhelper/bot/features/roles"
	"questhelper/bot/router"
	"questhelper/domain/entities"
	"questhelper/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token                 string
	DefaultPrefix         string
	PrefixCacheSize       int
	PromotedRoleIDs       []int64
	AutoRoleQueueSize     int
	AutoRoleRatePerSecond float64
}

// Bot wires the Discord gateway to the command router, the reaction state
// machine and the join-time role assigner
type Bot struct {
	config     Config
	session    *discordgo.Session
	gateway    *sessionGateway
	uowFactory application.UnitOfWorkFactory

	router    *router.Router
	prefixes  *application.PrefixStore
	reactions application.ReactionStateMachine
	assigner  *application.AutoRoleAssigner

	stopAssigner func()
}

// New creates the bot. The gateway connection is opened by Start.
func New(config Config, uowFactory application.UnitOfWorkFactory) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages

	prefixes, err := application.NewPrefixStore(uowFactory, config.PrefixCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create prefix store: %w", err)
	}

	gateway := newSessionGateway(dg)

	bot := &Bot{
		config:     config,
		session:    dg,
		gateway:    gateway,
		uowFactory: uowFactory,
		router:     router.New(prefixes, config.DefaultPrefix),
		prefixes:   prefixes,
		reactions:  application.NewReactionStateMachine(uowFactory),
		assigner: application.NewAutoRoleAssigner(
			uowFactory, gateway, gateway, config.AutoRoleQueueSize, config.AutoRoleRatePerSecond),
	}

	if err := bot.registerCommands(); err != nil {
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleGuildCreate)
	dg.AddHandler(bot.handleMessageCreate)
	dg.AddHandler(bot.handleReactionAdd)
	dg.AddHandler(bot.handleMemberAdd)

	return bot, nil
}

func (b *Bot) registerCommands() error {
	features := []interface{ Commands() []*router.Command }{
		general.NewFeature(b.session, b.router.Commands),
		diaries.NewFeature(b.session, b.uowFactory),
		guildconfig.NewFeature(b.session, b.uowFactory, b.prefixes, b.gateway, b.config.DefaultPrefix),
		roles.NewFeature(b.session, b.uowFactory, b.gateway),
		faq.NewFeature(b.session, b.uowFactory, b.config.PromotedRoleIDs),
	}

	for _, feature := range features {
		if err := b.router.Register(feature.Commands()...); err != nil {
			return err
		}
	}
	return nil
}

// LogPoster exposes the gateway for log channel notifications
func (b *Bot) LogPoster() application.LogPoster {
	return b.gateway
}

// SetAutoRoleResults forwards join-time assignment results to results
func (b *Bot) SetAutoRoleResults(results chan<- application.AutoRoleResult) {
	b.assigner.SetResults(results)
}

// Start runs the join-time assigner and opens the gateway connection
func (b *Bot) Start(ctx context.Context) error {
	b.stopAssigner = b.assigner.Start(ctx)

	if err := b.session.Open(); err != nil {
		b.stopAssigner()
		return fmt.Errorf("error opening connection: %w", err)
	}
	return nil
}

// Close closes the gateway connection and drains the assigner
func (b *Bot) Close() error {
	err := b.session.Close()
	if b.stopAssigner != nil {
		b.stopAssigner()
	}
	return err
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	id, err := common.ParseID(r.User.ID)
	if err != nil {
		log.WithError(err).Error("Failed to parse bot user id")
		return
	}
	b.router.SetBotUserID(id)

	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("Connected to Discord")
}

// handleGuildCreate warms the prefix cache. It only reads, so a guild that
// never configures anything has no stored settings.
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guildID, err := common.ParseID(g.ID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := b.prefixes.GetPrefix(ctx, guildID); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Warn("Failed to load guild prefix")
	}
}

func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	msg, err := b.toRouterMessage(m)
	if err != nil {
		log.WithError(err).WithField("message_id", m.ID).Warn("Dropping message with malformed ids")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outcome := b.router.Route(ctx, msg)
	if outcome.NeedsReply() {
		common.ReplyFailure(s, msg.ChannelID, outcome.Reason)
	}
}

func (b *Bot) toRouterMessage(m *discordgo.MessageCreate) (router.Message, error) {
	msg := router.Message{Content: m.Content}

	var err error
	if m.GuildID != "" {
		if msg.GuildID, err = common.ParseID(m.GuildID); err != nil {
			return msg, err
		}
	}
	if msg.ChannelID, err = common.ParseID(m.ChannelID); err != nil {
		return msg, err
	}
	if msg.MessageID, err = common.ParseID(m.ID); err != nil {
		return msg, err
	}
	if msg.AuthorID, err = common.ParseID(m.Author.ID); err != nil {
		return msg, err
	}

	msg.Capabilities = b.gateway.capabilities(m)
	return msg, nil
}

func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" || (s.State.User != nil && r.UserID == s.State.User.ID) {
		return
	}

	ids, err := parseAll(r.GuildID, r.ChannelID, r.MessageID, r.UserID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = b.reactions.OnReaction(ctx, application.Reaction{
		GuildID:   ids[0],
		ChannelID: ids[1],
		MessageID: ids[2],
		UserID:    ids[3],
		Emoji:     r.Emoji.Name,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id":   r.GuildID,
			"message_id": r.MessageID,
			"error":      err,
		}).Error("Failed to apply reaction")
	}
}

func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	ids, err := parseAll(m.GuildID, m.User.ID)
	if err != nil {
		return
	}
	guildID, userID := ids[0], ids[1]

	b.assigner.Submit(application.Join{GuildID: guildID, UserID: userID})
	b.sendWelcome(guildID, userID)
}

func (b *Bot) sendWelcome(guildID, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uow := b.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to begin transaction")
		return
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository(), uow.EventBus())
	channelID, err := settingsService.GetChannel(ctx, guildID, entities.ChannelKindWelcome)
	if err != nil || channelID == nil {
		return
	}

	if _, err := common.Reply(b.session, *channelID, fmt.Sprintf("Welcome to the server, %s!", common.GetUserMention(userID))); err != nil {
		log.WithFields(log.Fields{
			"guild_id":   guildID,
			"channel_id": *channelID,
			"error":      err,
		}).Warn("Failed to send welcome message")
	}
}

func parseAll(raw ...string) ([]int64, error) {
	ids := make([]int64, len(raw))
	for i, r := range raw {
		id, err := common.ParseID(r)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
