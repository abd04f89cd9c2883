package moderation

import (
	"chat-relay/errors"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newChatModerator(t *testing.T, words ...string) *Moderator {
	t.Helper()
	mod, err := NewModerator(words, '*', logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return mod
}

func TestModerator_Censor(t *testing.T) {
	mod := newChatModerator(t, "scam", "spam", "idiot")

	tests := []struct {
		name     string
		content  string
		expected string
		words    []string
	}{
		{
			name:     "should mask a word inside a sentence",
			content:  "Join my crypto scam today",
			expected: "Join my crypto **** today",
			words:    []string{"scam"},
		},
		{
			name:     "should report every occurrence in order",
			content:  "spam, scam and more spam",
			expected: "****, **** and more ****",
			words:    []string{"spam", "scam", "spam"},
		},
		{
			name:     "should see through leet speak",
			content:  "You are an 1d10t",
			expected: "You are an *****",
			words:    []string{"idiot"},
		},
		{
			name:     "should mask the separators spread inside a word",
			content:  "S.P.A.M everywhere",
			expected: "******* everywhere",
			words:    []string{"spam"},
		},
		{
			name:     "should keep accented text around a match",
			content:  "Arrête ce scam",
			expected: "Arrête ce ****",
			words:    []string{"scam"},
		},
		{
			name:     "should keep trailing punctuation",
			content:  "Total scam!",
			expected: "Total ****!",
			words:    []string{"scam"},
		},
		{
			name:     "should leave a clean message untouched",
			content:  "See you at the standup",
			expected: "See you at the standup",
			words:    nil,
		},
		{
			name:     "should accept an empty message",
			content:  "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			content, words := mod.Censor(tt.content)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
		})
	}
}

func TestNewModerator(t *testing.T) {
	t.Run("should ignore noise entries of the word list", func(t *testing.T) {
		req := require.New(t)

		// Given a word list mixing noise with a real word
		mod := newChatModerator(t, "...", "", " ", "scam")

		// Then only the real word is censored
		content, words := mod.Censor("No scam here ...")
		req.Equal("No **** here ...", content)
		req.Equal([]string{"scam"}, words)

		// And punctuation alone is left as is
		content, words = mod.Censor("Hello ...")
		req.Equal("Hello ...", content)
		req.Nil(words)
	})

	t.Run("should refuse a word list made only of noise", func(t *testing.T) {
		req := require.New(t)

		// When every entry normalizes to nothing
		mod, err := NewModerator([]string{"...", " ", "--", ""}, '*', logs.GetLoggerFromLevel(slog.LevelDebug))

		// Then no moderator is built
		req.ErrorIs(err, errors.ErrEmptyWords)
		req.Nil(mod)
	})
}
