package services

import (
	"context"
	"fmt"

	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
	"questhelper/events"

	log "github.com/sirupsen/logrus"
)

// roleReconciler implements the RoleReconciler interface
type roleReconciler struct {
	snapshot       interfaces.RoleSnapshotProvider
	roleRefRepo    interfaces.RoleReferenceRepository
	eventPublisher interfaces.EventPublisher
}

// NewRoleReconciler creates a reconciler over the guild-scoped reference repository
func NewRoleReconciler(snapshot interfaces.RoleSnapshotProvider, roleRefRepo interfaces.RoleReferenceRepository, eventPublisher interfaces.EventPublisher) interfaces.RoleReconciler {
	return &roleReconciler{
		snapshot:       snapshot,
		roleRefRepo:    roleRefRepo,
		eventPublisher: eventPublisher,
	}
}

// ResolveRoles returns the stored roles of the given kind that still exist
// and sit at or below the bot in the hierarchy, in stored order. References
// to missing or out-of-reach roles, and repeated references to the same
// role, are removed in a single batch before returning.
func (r *roleReconciler) ResolveRoles(ctx context.Context, guildID int64, kind entities.RoleKind) ([]entities.Role, error) {
	roles, err := r.snapshot.ListRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list roles: %w", ErrReconciliationUnavailable, err)
	}

	botPosition, err := r.snapshot.GetBotHierarchyPosition(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get bot hierarchy position: %w", ErrReconciliationUnavailable, err)
	}

	refs, err := r.roleRefRepo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s references: %w", kind, err)
	}

	byID := make(map[int64]entities.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}

	valid := make([]entities.Role, 0, len(refs))
	seen := make(map[int64]bool, len(refs))
	var pruneIDs, prunedRoles []int64

	for _, ref := range refs {
		role, exists := byID[ref.RoleID]
		switch {
		case !exists, role.Position > botPosition:
			pruneIDs = append(pruneIDs, ref.ID)
			prunedRoles = append(prunedRoles, ref.RoleID)
		case seen[ref.RoleID]:
			pruneIDs = append(pruneIDs, ref.ID)
		default:
			seen[ref.RoleID] = true
			valid = append(valid, role)
		}
	}

	if len(pruneIDs) == 0 {
		return valid, nil
	}

	if err := r.roleRefRepo.RemoveBatch(ctx, pruneIDs); err != nil {
		return nil, fmt.Errorf("failed to prune %s references: %w", kind, err)
	}

	log.WithFields(log.Fields{
		"guild_id":     guildID,
		"kind":         kind,
		"pruned_refs":  len(pruneIDs),
		"invalid_role": prunedRoles,
	}).Info("Pruned stale role references")

	if len(prunedRoles) > 0 {
		if err := r.eventPublisher.Publish(events.RoleReferencesPrunedEvent{
			GuildID: guildID,
			Kind:    kind,
			RoleIDs: prunedRoles,
		}); err != nil {
			return nil, fmt.Errorf("failed to publish role references pruned event: %w", err)
		}
	}

	return valid, nil
}
