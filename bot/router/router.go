package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"questhelper/bot/common"
	"questhelper/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Capabilities describes what the invoker and the bot may do where a message
// was sent
type Capabilities struct {
	Permissions    int64
	BotPermissions int64
	RoleIDs        []int64
}

// Message is an incoming chat message reduced to what routing needs.
// GuildID is zero for direct messages.
type Message struct {
	GuildID      int64
	ChannelID    int64
	MessageID    int64
	AuthorID     int64
	Content      string
	Capabilities Capabilities
}

// Request is passed to a command handler
type Request struct {
	Message Message
	// Command is the canonical name, even when invoked through an alias
	Command string
	// Args is everything after the command token, trimmed
	Args string
}

// Handler executes a command. A returned error is reported to the invoker.
type Handler func(ctx context.Context, req *Request) error

// Command binds names to a handler and its ordered preconditions
type Command struct {
	Name          string
	Aliases       []string
	Usage         string
	Description   string
	Preconditions []Precondition
	Handler       Handler
}

// PrefixSource resolves the stored prefix of a guild. An empty string means
// no prefix is stored.
type PrefixSource interface {
	GetPrefix(ctx context.Context, guildID int64) (string, error)
}

// Router resolves prefixes, parses commands and dispatches them
type Router struct {
	prefixes      PrefixSource
	defaultPrefix string
	botUserID     atomic.Int64

	mu       sync.RWMutex
	lookup   map[string]*Command
	commands []*Command
}

// New creates a router. defaultPrefix is used for direct messages, for guilds
// without a stored prefix and when the prefix lookup fails.
func New(prefixes PrefixSource, defaultPrefix string) *Router {
	return &Router{
		prefixes:      prefixes,
		defaultPrefix: defaultPrefix,
		lookup:        make(map[string]*Command),
	}
}

// SetBotUserID enables mention-prefixed commands for the given bot user
func (r *Router) SetBotUserID(id int64) {
	r.botUserID.Store(id)
}

// Register adds commands. Names and aliases are matched case-insensitively
// and must be unique.
func (r *Router) Register(cmds ...*Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cmd := range cmds {
		if cmd.Handler == nil {
			return fmt.Errorf("command %q has no handler", cmd.Name)
		}
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			key := strings.ToLower(name)
			if key == "" {
				return fmt.Errorf("command %q has an empty name or alias", cmd.Name)
			}
			if existing, ok := r.lookup[key]; ok {
				return fmt.Errorf("command name %q already registered by %q", name, existing.Name)
			}
			r.lookup[key] = cmd
		}
		r.commands = append(r.commands, cmd)
	}
	return nil
}

// Commands returns the registered commands in registration order
func (r *Router) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.commands...)
}

// Route handles one message and classifies the result
func (r *Router) Route(ctx context.Context, msg Message) Outcome {
	start := time.Now()

	rest, ok := r.stripPrefix(ctx, msg)
	if !ok {
		return Outcome{Kind: OutcomeRoutingIgnored}
	}

	name, args := splitCommand(rest)
	if name == "" {
		return Outcome{Kind: OutcomeRoutingIgnored}
	}

	r.mu.RLock()
	cmd, found := r.lookup[strings.ToLower(name)]
	r.mu.RUnlock()
	if !found {
		return Outcome{Kind: OutcomeRoutingIgnored}
	}

	outcome := r.invoke(ctx, cmd, &Request{Message: msg, Command: cmd.Name, Args: args})
	observability.GetMetrics().RecordCommand(cmd.Name, outcome.Kind.String(), time.Since(start))
	return outcome
}

func (r *Router) invoke(ctx context.Context, cmd *Command, req *Request) (outcome Outcome) {
	fields := log.Fields{
		"command":    cmd.Name,
		"guild_id":   req.Message.GuildID,
		"channel_id": req.Message.ChannelID,
		"user_id":    req.Message.AuthorID,
	}

	for _, precondition := range cmd.Preconditions {
		if reason, ok := precondition(req.Message); !ok {
			log.WithFields(fields).WithField("reason", reason).Debug("Command precondition failed")
			return Outcome{Kind: OutcomePreconditionFailed, Command: cmd.Name, Reason: reason}
		}
	}

	defer func() {
		if p := recover(); p != nil {
			log.WithFields(fields).WithField("panic", p).Error("Command handler panicked")
			outcome = Outcome{
				Kind:    OutcomeHandlerFailure,
				Command: cmd.Name,
				Reason:  "something went wrong",
				Err:     fmt.Errorf("handler panicked: %v", p),
			}
		}
	}()

	if err := cmd.Handler(ctx, req); err != nil {
		var botErr *common.BotError
		if errors.As(err, &botErr) && botErr.Err == nil {
			log.WithFields(fields).WithField("error", err).Debug("Command rejected")
		} else {
			log.WithFields(fields).WithField("error", err).Error("Command handler failed")
		}
		return Outcome{
			Kind:    OutcomeHandlerFailure,
			Command: cmd.Name,
			Reason:  common.UserMessage(err),
			Err:     err,
		}
	}

	return Outcome{Kind: OutcomeHandled, Command: cmd.Name}
}

// stripPrefix returns the content after the guild prefix or bot mention
func (r *Router) stripPrefix(ctx context.Context, msg Message) (string, bool) {
	if rest, ok := r.stripMention(msg.Content); ok {
		return rest, true
	}

	prefix := r.resolvePrefix(ctx, msg.GuildID)
	if !strings.HasPrefix(msg.Content, prefix) {
		return "", false
	}
	return msg.Content[len(prefix):], true
}

func (r *Router) stripMention(content string) (string, bool) {
	botID := r.botUserID.Load()
	if botID == 0 {
		return "", false
	}

	id := strconv.FormatInt(botID, 10)
	for _, mention := range []string{"<@" + id + ">", "<@!" + id + ">"} {
		if rest, ok := strings.CutPrefix(content, mention); ok {
			return rest, true
		}
	}
	return "", false
}

func (r *Router) resolvePrefix(ctx context.Context, guildID int64) string {
	if guildID == 0 || r.prefixes == nil {
		return r.defaultPrefix
	}

	prefix, err := r.prefixes.GetPrefix(ctx, guildID)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"error":    err,
		}).Warn("Failed to resolve guild prefix, using default")
		return r.defaultPrefix
	}
	if prefix == "" {
		return r.defaultPrefix
	}
	return prefix
}

// splitCommand splits "name  some args" into the command token and the
// trimmed remainder
func splitCommand(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}
