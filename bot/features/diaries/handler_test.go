package diaries

import (
	"errors"
	"fmt"
	"testing"

	"questhelper/bot/common"
	"questhelper/domain/entities"
	"questhelper/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNameAndStatus(t *testing.T) {
	tests := []struct {
		args       string
		wantName   string
		wantStatus entities.DiaryStatus
		wantOK     bool
	}{
		{"Varrock live", "Varrock", entities.DiaryStatusLive, true},
		{"Lumbridge & Draynor in development", "Lumbridge & Draynor", entities.DiaryStatusInDevelopment, true},
		{"Falador PR Submitted", "Falador", entities.DiaryStatusPRSubmitted, true},
		{"Karamja 🟡", "Karamja", entities.DiaryStatusInDevelopment, true},
		{"Kandarin no progress", "Kandarin", entities.DiaryStatusNoProgress, true},
		{"live", "", "", false},
		{"Varrock sideways", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			name, status, ok := splitNameAndStatus(tt.args)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestDiaryError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantUserErr bool
	}{
		{"exists", fmt.Errorf("wrapped: %w", services.ErrDiaryExists), true},
		{"not found", services.ErrDiaryNotFound, true},
		{"invalid name", services.ErrInvalidName, true},
		{"system", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := diaryError(tt.err, "Varrock")

			var botErr *common.BotError
			assert.Equal(t, tt.wantUserErr, errors.As(mapped, &botErr))
			if !tt.wantUserErr {
				assert.Same(t, tt.err, mapped)
			}
		})
	}
}

func TestBuildDiaryListEmbed(t *testing.T) {
	embed := buildDiaryListEmbed(nil)
	assert.Empty(t, embed.Fields)

	embed = buildDiaryListEmbed([]*entities.Diary{
		{Name: "Varrock", Status: entities.DiaryStatusLive},
		{Name: "Falador", Status: entities.DiaryStatusNoProgress},
	})
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Varrock", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, entities.EmojiGreenCircle)
}
