package application

import (
	"context"
	"errors"
	"fmt"

	"questhelper/domain/entities"
	"questhelper/domain/services"
	"questhelper/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// ReactionResult describes what happened to a reaction
type ReactionResult string

const (
	ReactionApplied               ReactionResult = "applied"
	ReactionIgnoredUnknownEmoji   ReactionResult = "ignored_unknown_emoji"
	ReactionIgnoredUnknownMessage ReactionResult = "ignored_unknown_message"
)

// Reaction is a reaction-added event reduced to what the state machine needs
type Reaction struct {
	GuildID   int64
	ChannelID int64
	MessageID int64
	UserID    int64
	Emoji     string
}

// ReactionOutcome is the result of handling one reaction
type ReactionOutcome struct {
	Result ReactionResult
	Diary  *entities.Diary
}

// ReactionStateMachine applies circle-emoji reactions to diary statuses
type ReactionStateMachine interface {
	OnReaction(ctx context.Context, reaction Reaction) (ReactionOutcome, error)
}

type reactionStateMachine struct {
	uowFactory UnitOfWorkFactory
	locks      *keyedMutex
}

// NewReactionStateMachine creates a state machine. Reactions on the same
// control message are applied one at a time in arrival order.
func NewReactionStateMachine(uowFactory UnitOfWorkFactory) ReactionStateMachine {
	return &reactionStateMachine{
		uowFactory: uowFactory,
		locks:      newKeyedMutex(),
	}
}

func (m *reactionStateMachine) OnReaction(ctx context.Context, reaction Reaction) (ReactionOutcome, error) {
	if _, ok := entities.StatusForEmoji(reaction.Emoji); !ok {
		observability.GetMetrics().RecordReaction(string(ReactionIgnoredUnknownEmoji))
		return ReactionOutcome{Result: ReactionIgnoredUnknownEmoji}, nil
	}

	unlock := m.locks.Lock(reaction.MessageID)
	defer unlock()

	uow := m.uowFactory.CreateForGuild(reaction.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return ReactionOutcome{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	diaryService := services.NewDiaryService(uow.DiaryRepository(), uow.EventBus())

	diary, err := diaryService.ApplyReaction(ctx, reaction.MessageID, reaction.UserID, reaction.Emoji)
	switch {
	case errors.Is(err, services.ErrUnknownControlMessage):
		observability.GetMetrics().RecordReaction(string(ReactionIgnoredUnknownMessage))
		return ReactionOutcome{Result: ReactionIgnoredUnknownMessage}, nil
	case errors.Is(err, services.ErrUnrecognizedEmoji):
		observability.GetMetrics().RecordReaction(string(ReactionIgnoredUnknownEmoji))
		return ReactionOutcome{Result: ReactionIgnoredUnknownEmoji}, nil
	case err != nil:
		observability.GetMetrics().RecordReaction("error")
		return ReactionOutcome{}, fmt.Errorf("failed to apply reaction: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return ReactionOutcome{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	observability.GetMetrics().RecordReaction(string(ReactionApplied))
	log.WithFields(log.Fields{
		"guild_id":   reaction.GuildID,
		"message_id": reaction.MessageID,
		"user_id":    reaction.UserID,
		"diary":      diary.Name,
		"status":     diary.Status,
	}).Info("Diary status updated from reaction")

	return ReactionOutcome{Result: ReactionApplied, Diary: diary}, nil
}
