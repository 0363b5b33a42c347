package application

import (
	"context"
	"fmt"

	"questhelper/domain/services"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// PrefixStore reads and writes guild prefixes through a bounded LRU cache.
// A cached empty string means the guild has no stored prefix.
//
// Writers put the committed prefix into the cache; readers only fill an empty
// slot, so a lookup that started before a write cannot replace the newer value.
type PrefixStore struct {
	uowFactory UnitOfWorkFactory
	cache      *lru.Cache[int64, string]
	writes     *keyedMutex
}

// NewPrefixStore creates a prefix store holding at most size guilds
func NewPrefixStore(uowFactory UnitOfWorkFactory, size int) (*PrefixStore, error) {
	cache, err := lru.New[int64, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prefix cache: %w", err)
	}

	return &PrefixStore{
		uowFactory: uowFactory,
		cache:      cache,
		writes:     newKeyedMutex(),
	}, nil
}

// GetPrefix returns the stored prefix for a guild, or an empty string
func (s *PrefixStore) GetPrefix(ctx context.Context, guildID int64) (string, error) {
	if prefix, ok := s.cache.Get(guildID); ok {
		return prefix, nil
	}

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository(), uow.EventBus())
	prefix, err := settingsService.GetPrefix(ctx, guildID)
	if err != nil {
		return "", err
	}

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	if found, _ := s.cache.ContainsOrAdd(guildID, prefix); found {
		// A write landed while we were reading; it is newer than our row.
		if cached, ok := s.cache.Get(guildID); ok {
			return cached, nil
		}
	}
	return prefix, nil
}

// SetPrefix validates and stores a guild prefix, then refreshes the cache.
// Writes for one guild are serialized so the cache ends on the last commit.
func (s *PrefixStore) SetPrefix(ctx context.Context, guildID int64, prefix string, changedBy int64) error {
	unlock := s.writes.Lock(guildID)
	defer unlock()

	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository(), uow.EventBus())
	if err := settingsService.SetPrefix(ctx, guildID, prefix, changedBy); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Add(guildID, prefix)
	log.WithFields(log.Fields{
		"guild_id": guildID,
		"prefix":   prefix,
	}).Info("Guild prefix updated")
	return nil
}
