package core

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/keepmind9/praxi/internal/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainMessage(text string) bot.BotMessage {
	return bot.BotMessage{Kind: bot.KindMessage, Content: text, UserID: "U1", Channel: "C1"}
}

func slashCommand(name, text string) bot.BotMessage {
	return bot.BotMessage{Kind: bot.KindSlashCommand, Command: name, Content: text, UserID: "U1", Channel: "C1"}
}

func TestRouter_FirstMatchWins(t *testing.T) {
	r := NewRouter()
	var hits []string
	r.Handle("first", Pattern(regexp.MustCompile(`^a`)), func(ctx context.Context, msg bot.BotMessage, args []string) error {
		hits = append(hits, "first")
		return nil
	})
	r.Handle("second", Exact("abc"), func(ctx context.Context, msg bot.BotMessage, args []string) error {
		hits = append(hits, "second")
		return nil
	})

	route, err := r.Dispatch(context.Background(), plainMessage("abc"))
	require.NoError(t, err)
	assert.Equal(t, "first", route)
	assert.Equal(t, []string{"first"}, hits)
	assert.Len(t, r.Routes(), 2)
}

func TestRouter_NoMatch(t *testing.T) {
	r := NewRouter()
	r.Handle("ping", Exact("ping"), func(ctx context.Context, msg bot.BotMessage, args []string) error {
		t.Fatal("should not run")
		return nil
	})

	acked := false
	msg := plainMessage("hello")
	msg.AckFunc = func() { acked = true }

	route, err := r.Dispatch(context.Background(), msg)
	assert.NoError(t, err)
	assert.Empty(t, route)
	assert.True(t, acked, "unmatched events are still acknowledged")
}

func TestRouter_AcksBeforeHandler(t *testing.T) {
	r := NewRouter()
	var order []string
	r.Handle("cmd", Command("/deep-search"), func(ctx context.Context, msg bot.BotMessage, args []string) error {
		order = append(order, "handler")
		return nil
	})

	for _, payload := range []string{"", "deep dive on X"} {
		order = nil
		msg := slashCommand("/deep-search", payload)
		msg.AckFunc = func() { order = append(order, "ack") }

		_, err := r.Dispatch(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, []string{"ack", "handler"}, order, "payload %q", payload)
	}
}

func TestRouter_HandlerErrorReturned(t *testing.T) {
	r := NewRouter()
	r.Handle("boom", Exact("boom"), func(ctx context.Context, msg bot.BotMessage, args []string) error {
		return errors.New("handler failed")
	})

	route, err := r.Dispatch(context.Background(), plainMessage("boom"))
	assert.Equal(t, "boom", route)
	assert.EqualError(t, err, "handler failed")
}

func TestExact(t *testing.T) {
	match := Exact("ping")

	_, ok := match(plainMessage("ping"))
	assert.True(t, ok)

	for _, text := range []string{"Ping", "ping ", " ping", "pingpong", ""} {
		_, ok := match(plainMessage(text))
		assert.False(t, ok, "text %q", text)
	}

	_, ok = match(slashCommand("/ping", "ping"))
	assert.False(t, ok, "slash commands never match message routes")
}

func TestCommand(t *testing.T) {
	match := Command("/deep-search")

	args, ok := match(slashCommand("/deep-search", "deep dive on X"))
	assert.True(t, ok)
	assert.Equal(t, []string{"deep dive on X"}, args)

	args, ok = match(slashCommand("/deep-search", ""))
	assert.True(t, ok)
	assert.Equal(t, []string{""}, args)

	_, ok = match(slashCommand("/other", "x"))
	assert.False(t, ok)

	_, ok = match(plainMessage("/deep-search x"))
	assert.False(t, ok)
}

func TestSearchPattern_CapturesRemainder(t *testing.T) {
	match := Pattern(searchPattern)

	tests := []struct {
		text  string
		query string
		ok    bool
	}{
		{"search: weather in Tokyo", "weather in Tokyo", true},
		{"search:weather", "weather", true},
		{"search:", "", true},
		{"search:    ", "", true},
		{"search:   spaced  out  ", "spaced  out  ", true},
		{"search:\tq", "q", true},
		{"search: first line\nsecond line", "first line\nsecond line", true},
		{"search:\n\nbelow", "below", true},
		{"Search: x", "", false},
		{"please search: x", "", false},
		{" search: x", "", false},
		{"ping", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			args, ok := match(plainMessage(tt.text))
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Len(t, args, 1)
				assert.Equal(t, tt.query, args[0])
			}
		})
	}
}
