package application

import (
	"context"
	"fmt"
	"sync"

	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
	"questhelper/domain/services"
	"questhelper/infrastructure/observability"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Join is a member-join event
type Join struct {
	GuildID int64
	UserID  int64
}

// AutoRoleResult reports what happened to a single join
type AutoRoleResult struct {
	Join     Join
	Assigned []int64
	Failed   map[int64]error
	Err      error
}

// RoleAssigner grants a role to a guild member
type RoleAssigner interface {
	AddMemberRole(ctx context.Context, guildID, userID, roleID int64) error
}

// AutoRoleAssigner grants configured auto-roles to new members. Joins are
// queued and processed by a single worker so the gateway handler never blocks.
type AutoRoleAssigner struct {
	uowFactory UnitOfWorkFactory
	snapshot   interfaces.RoleSnapshotProvider
	assigner   RoleAssigner
	limiter    *rate.Limiter
	queue      chan Join
	results    chan<- AutoRoleResult
}

// NewAutoRoleAssigner creates an assigner with a bounded queue. Role grants are
// paced to ratePerSecond across all guilds.
func NewAutoRoleAssigner(uowFactory UnitOfWorkFactory, snapshot interfaces.RoleSnapshotProvider, assigner RoleAssigner, queueSize int, ratePerSecond float64) *AutoRoleAssigner {
	if queueSize <= 0 {
		queueSize = 1
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}

	return &AutoRoleAssigner{
		uowFactory: uowFactory,
		snapshot:   snapshot,
		assigner:   assigner,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		queue:      make(chan Join, queueSize),
	}
}

// SetResults registers a channel that receives one result per processed join.
// Must be called before Start. Sends never block the worker.
func (a *AutoRoleAssigner) SetResults(results chan<- AutoRoleResult) {
	a.results = results
}

// Submit queues a join. It returns false when the queue is full and the join
// was dropped.
func (a *AutoRoleAssigner) Submit(join Join) bool {
	select {
	case a.queue <- join:
		return true
	default:
		observability.GetMetrics().RecordAutoRole("dropped")
		log.WithFields(log.Fields{
			"guild_id": join.GuildID,
			"user_id":  join.UserID,
		}).Warn("Auto-role queue full, dropping join")
		return false
	}
}

// Start runs the worker until ctx is cancelled or the returned stop func is
// called. The stop func blocks until the worker has exited.
func (a *AutoRoleAssigner) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Auto-role worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Auto-role worker shutting down")
				return
			case join := <-a.queue:
				a.emit(a.process(ctx, join))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func (a *AutoRoleAssigner) emit(result AutoRoleResult) {
	if a.results == nil {
		return
	}
	select {
	case a.results <- result:
	default:
		log.WithField("guild_id", result.Join.GuildID).Debug("Auto-role result dropped, no receiver ready")
	}
}

func (a *AutoRoleAssigner) process(ctx context.Context, join Join) AutoRoleResult {
	result := AutoRoleResult{Join: join, Failed: make(map[int64]error)}

	roles, err := a.resolveRoles(ctx, join.GuildID)
	if err != nil {
		observability.GetMetrics().RecordAutoRole("failed")
		log.WithFields(log.Fields{
			"guild_id": join.GuildID,
			"user_id":  join.UserID,
			"error":    err,
		}).Error("Failed to resolve auto-roles")
		result.Err = err
		return result
	}

	for _, role := range roles {
		if err := a.limiter.Wait(ctx); err != nil {
			result.Err = fmt.Errorf("auto-role assignment interrupted: %w", err)
			return result
		}

		if err := a.assigner.AddMemberRole(ctx, join.GuildID, join.UserID, role.ID); err != nil {
			observability.GetMetrics().RecordAutoRole("failed")
			log.WithFields(log.Fields{
				"guild_id": join.GuildID,
				"user_id":  join.UserID,
				"role_id":  role.ID,
				"error":    err,
			}).Warn("Failed to assign auto-role")
			result.Failed[role.ID] = err
			continue
		}

		observability.GetMetrics().RecordAutoRole("assigned")
		result.Assigned = append(result.Assigned, role.ID)
	}

	if len(result.Assigned) > 0 {
		log.WithFields(log.Fields{
			"guild_id": join.GuildID,
			"user_id":  join.UserID,
			"roles":    result.Assigned,
		}).Info("Assigned auto-roles to new member")
	}

	return result
}

func (a *AutoRoleAssigner) resolveRoles(ctx context.Context, guildID int64) ([]entities.Role, error) {
	uow := a.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reconciler := services.NewRoleReconciler(a.snapshot, uow.RoleReferenceRepository(), uow.EventBus())
	roles, err := reconciler.ResolveRoles(ctx, guildID, entities.RoleKindAutoRole)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return roles, nil
}
