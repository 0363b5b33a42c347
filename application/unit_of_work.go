package application

import (
	"context"

	"questhelper/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes events raised inside it
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	GuildSettingsRepository() interfaces.GuildSettingsRepository
	DiaryRepository() interfaces.DiaryRepository
	RoleReferenceRepository() interfaces.RoleReferenceRepository
	FAQRepository() interfaces.FAQRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}
