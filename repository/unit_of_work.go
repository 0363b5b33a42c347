package repository

import (
	"context"
	"errors"
	"fmt"

	"questhelper/application"
	"questhelper/database"
	"questhelper/domain/interfaces"
	"questhelper/events"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                *database.DB
	tx                pgx.Tx
	ctx               context.Context
	guildID           int64
	bus               *events.TransactionalBus
	guildSettingsRepo interfaces.GuildSettingsRepository
	diaryRepo         interfaces.DiaryRepository
	roleRefRepo       interfaces.RoleReferenceRepository
	faqRepo           interfaces.FAQRepository
}

type unitOfWorkFactory struct {
	db        *database.DB
	publisher events.Publisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Events raised inside
// a unit of work reach publisher only after the transaction commits.
func NewUnitOfWorkFactory(db *database.DB, publisher events.Publisher) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:        db,
		publisher: publisher,
	}
}

// CreateForGuild creates a new UnitOfWork scoped to a guild
func (f *unitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	return &unitOfWork{
		db:      f.db,
		guildID: guildID,
		bus:     events.NewTransactionalBus(f.publisher),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.guildSettingsRepo = NewGuildSettingsRepositoryWithTx(tx)
	u.diaryRepo = newDiaryRepository(tx, u.guildID)
	u.roleRefRepo = newRoleReferenceRepository(tx, u.guildID)
	u.faqRepo = newFAQRepository(tx, u.guildID)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		u.tx = nil
		u.bus.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	return u.bus.Flush(u.ctx)
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.bus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// GuildSettingsRepository returns the guild settings repository for this unit of work
func (u *unitOfWork) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	if u.guildSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildSettingsRepo
}

// DiaryRepository returns the diary repository for this unit of work
func (u *unitOfWork) DiaryRepository() interfaces.DiaryRepository {
	if u.diaryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.diaryRepo
}

// RoleReferenceRepository returns the role reference repository for this unit of work
func (u *unitOfWork) RoleReferenceRepository() interfaces.RoleReferenceRepository {
	if u.roleRefRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roleRefRepo
}

// FAQRepository returns the FAQ repository for this unit of work
func (u *unitOfWork) FAQRepository() interfaces.FAQRepository {
	if u.faqRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.faqRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.bus
}
