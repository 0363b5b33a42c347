package repository

import (
	"context"
	"errors"
	"fmt"

	"questhelper/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const diaryColumns = `id, guild_id, control_message_id, control_channel_id, initiator_id, name, status::text, created_at, updated_at`

// diaryRepository implements DiaryRepository scoped to one guild
type diaryRepository struct {
	q       Queryable
	guildID int64
}

func newDiaryRepository(q Queryable, guildID int64) *diaryRepository {
	return &diaryRepository{q: q, guildID: guildID}
}

func scanDiary(row pgx.Row) (*entities.Diary, error) {
	var diary entities.Diary
	var status string
	err := row.Scan(
		&diary.ID,
		&diary.GuildID,
		&diary.ControlMessageID,
		&diary.ControlChannelID,
		&diary.InitiatorID,
		&diary.Name,
		&status,
		&diary.CreatedAt,
		&diary.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	diary.Status = entities.DiaryStatus(status)
	return &diary, nil
}

// getOne runs a single-row query and maps no rows to nil, nil
func (r *diaryRepository) getOne(ctx context.Context, query string, args ...any) (*entities.Diary, error) {
	diary, err := scanDiary(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return diary, err
}

func (r *diaryRepository) Create(ctx context.Context, diary *entities.Diary) error {
	diary.GuildID = r.guildID

	query := `
		INSERT INTO diaries (id, guild_id, control_message_id, control_channel_id, initiator_id, name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::diary_status)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		diary.ID,
		diary.GuildID,
		diary.ControlMessageID,
		diary.ControlChannelID,
		diary.InitiatorID,
		diary.Name,
		string(diary.Status),
	).Scan(&diary.CreatedAt, &diary.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create diary %q: %w", diary.Name, err)
	}

	return nil
}

func (r *diaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE id = $1 AND guild_id = $2`

	diary, err := r.getOne(ctx, query, id, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get diary %s: %w", id, err)
	}
	return diary, nil
}

func (r *diaryRepository) GetByControlMessageID(ctx context.Context, messageID int64) (*entities.Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE control_message_id = $1 AND guild_id = $2`

	diary, err := r.getOne(ctx, query, messageID, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get diary by control message %d: %w", messageID, err)
	}
	return diary, nil
}

func (r *diaryRepository) GetByName(ctx context.Context, name string) (*entities.Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE name = $1 AND guild_id = $2`

	diary, err := r.getOne(ctx, query, name, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get diary by name %q: %w", name, err)
	}
	return diary, nil
}

func (r *diaryRepository) ListAll(ctx context.Context) ([]*entities.Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE guild_id = $1 ORDER BY created_at, name`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diaries: %w", err)
	}
	defer rows.Close()

	var diaries []*entities.Diary
	for rows.Next() {
		diary, err := scanDiary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary: %w", err)
		}
		diaries = append(diaries, diary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diaries: %w", err)
	}

	return diaries, nil
}

func (r *diaryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.DiaryStatus) error {
	query := `UPDATE diaries SET status = $3::diary_status, updated_at = NOW() WHERE id = $1 AND guild_id = $2`
	return r.execOne(ctx, "update status of", id, query, id, r.guildID, string(status))
}

func (r *diaryRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	query := `UPDATE diaries SET name = $3, updated_at = NOW() WHERE id = $1 AND guild_id = $2`
	return r.execOne(ctx, "rename", id, query, id, r.guildID, name)
}

func (r *diaryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM diaries WHERE id = $1 AND guild_id = $2`
	return r.execOne(ctx, "delete", id, query, id, r.guildID)
}

// execOne runs a statement that must touch exactly one diary
func (r *diaryRepository) execOne(ctx context.Context, action string, id uuid.UUID, query string, args ...any) error {
	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s diary %s: %w", action, id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("diary %s not found", id)
	}
	return nil
}
