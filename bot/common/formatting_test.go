package common

import (
	"errors"
	"testing"

	"questhelper/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestParseMentions(t *testing.T) {
	tests := []struct {
		name   string
		parse  func(string) (int64, bool)
		input  string
		wantID int64
		wantOK bool
	}{
		{"channel mention", ParseChannelMention, "<#123>", 123, true},
		{"channel bare id", ParseChannelMention, " 456 ", 456, true},
		{"channel garbage", ParseChannelMention, "#general", 0, false},
		{"user mention", ParseUserMention, "<@789>", 789, true},
		{"user nickname mention", ParseUserMention, "<@!789>", 789, true},
		{"user role mention rejected", ParseUserMention, "<@&789>", 0, false},
		{"role mention", ParseRoleMention, "<@&42>", 42, true},
		{"negative id", ParseRoleMention, "-5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "🟢🟢…", Truncate("🟢🟢🟢🟢", 3))
}

func TestFormatControlMessage(t *testing.T) {
	msg := FormatControlMessage("Varrock")

	assert.Contains(t, msg, "**Varrock**")
	for _, emoji := range entities.ControlEmojis() {
		assert.Contains(t, msg, emoji)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "nope", UserMessage(NewUserError("nope", "user error")))
	assert.Equal(t, "something went wrong -> [boom]", UserMessage(errors.New("boom")))

	wrapped := NewSystemError(errors.New("db down"), "failed to load")
	assert.Contains(t, UserMessage(wrapped), "Something went wrong")
	assert.ErrorContains(t, wrapped, "db down")
}
