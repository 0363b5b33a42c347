package repository

import (
	"context"
	"errors"
	"fmt"

	"questhelper/domain/entities"

	"github.com/jackc/pgx/v5"
)

// faqRepository implements FAQRepository scoped to one guild
type faqRepository struct {
	q       Queryable
	guildID int64
}

func newFAQRepository(q Queryable, guildID int64) *faqRepository {
	return &faqRepository{q: q, guildID: guildID}
}

const faqColumns = `id, guild_id, name, content, owner_id, created_at, updated_at`

func scanFAQ(row pgx.Row) (*entities.FAQ, error) {
	var faq entities.FAQ
	if err := row.Scan(&faq.ID, &faq.GuildID, &faq.Name, &faq.Content, &faq.OwnerID, &faq.CreatedAt, &faq.UpdatedAt); err != nil {
		return nil, err
	}
	return &faq, nil
}

func (r *faqRepository) Get(ctx context.Context, name string) (*entities.FAQ, error) {
	query := `SELECT ` + faqColumns + ` FROM faqs WHERE guild_id = $1 AND name = $2`

	faq, err := scanFAQ(r.q.QueryRow(ctx, query, r.guildID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get faq %q: %w", name, err)
	}
	return faq, nil
}

func (r *faqRepository) List(ctx context.Context) ([]*entities.FAQ, error) {
	query := `SELECT ` + faqColumns + ` FROM faqs WHERE guild_id = $1 ORDER BY name`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer rows.Close()

	var faqs []*entities.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan faq: %w", err)
		}
		faqs = append(faqs, faq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating faqs: %w", err)
	}
	return faqs, nil
}

func (r *faqRepository) Create(ctx context.Context, faq *entities.FAQ) error {
	faq.GuildID = r.guildID

	query := `
		INSERT INTO faqs (guild_id, name, content, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, faq.GuildID, faq.Name, faq.Content, faq.OwnerID).
		Scan(&faq.ID, &faq.CreatedAt, &faq.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create faq %q: %w", faq.Name, err)
	}
	return nil
}

func (r *faqRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	query := `UPDATE faqs SET content = $3, updated_at = NOW() WHERE guild_id = $1 AND id = $2`
	return r.execOne(ctx, query, id, content)
}

func (r *faqRepository) UpdateOwner(ctx context.Context, id int64, ownerID int64) error {
	query := `UPDATE faqs SET owner_id = $3, updated_at = NOW() WHERE guild_id = $1 AND id = $2`
	return r.execOne(ctx, query, id, ownerID)
}

func (r *faqRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM faqs WHERE guild_id = $1 AND id = $2`
	return r.execOne(ctx, query, id)
}

func (r *faqRepository) execOne(ctx context.Context, query string, id int64, extra ...any) error {
	args := append([]any{r.guildID, id}, extra...)
	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write faq %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("faq %d not found", id)
	}
	return nil
}
