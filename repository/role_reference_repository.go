package repository

import (
	"context"
	"fmt"

	"questhelper/domain/entities"
)

// roleReferenceRepository implements RoleReferenceRepository scoped to one guild
type roleReferenceRepository struct {
	q       Queryable
	guildID int64
}

func newRoleReferenceRepository(q Queryable, guildID int64) *roleReferenceRepository {
	return &roleReferenceRepository{q: q, guildID: guildID}
}

func (r *roleReferenceRepository) List(ctx context.Context, kind entities.RoleKind) ([]*entities.RoleReference, error) {
	query := `
		SELECT id, guild_id, role_id, kind::text
		FROM role_references
		WHERE guild_id = $1 AND kind = $2::role_reference_kind
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, r.guildID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s references: %w", kind, err)
	}
	defer rows.Close()

	var refs []*entities.RoleReference
	for rows.Next() {
		var ref entities.RoleReference
		var refKind string
		if err := rows.Scan(&ref.ID, &ref.GuildID, &ref.RoleID, &refKind); err != nil {
			return nil, fmt.Errorf("failed to scan role reference: %w", err)
		}
		ref.Kind = entities.RoleKind(refKind)
		refs = append(refs, &ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role references: %w", err)
	}

	return refs, nil
}

func (r *roleReferenceRepository) Add(ctx context.Context, kind entities.RoleKind, roleID int64) error {
	query := `
		INSERT INTO role_references (guild_id, role_id, kind)
		VALUES ($1, $2, $3::role_reference_kind)
		ON CONFLICT ON CONSTRAINT role_references_unique DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, r.guildID, roleID, string(kind)); err != nil {
		return fmt.Errorf("failed to add %s reference %d: %w", kind, roleID, err)
	}
	return nil
}

func (r *roleReferenceRepository) Remove(ctx context.Context, kind entities.RoleKind, roleID int64) (bool, error) {
	query := `
		DELETE FROM role_references
		WHERE guild_id = $1 AND role_id = $2 AND kind = $3::role_reference_kind
	`

	result, err := r.q.Exec(ctx, query, r.guildID, roleID, string(kind))
	if err != nil {
		return false, fmt.Errorf("failed to remove %s reference %d: %w", kind, roleID, err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *roleReferenceRepository) RemoveBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM role_references WHERE guild_id = $1 AND id = ANY($2)`

	if _, err := r.q.Exec(ctx, query, r.guildID, ids); err != nil {
		return fmt.Errorf("failed to remove %d role references: %w", len(ids), err)
	}
	return nil
}
