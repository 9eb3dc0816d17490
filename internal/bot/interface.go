// Package bot provides the chat platform adapter used by praxi.
//
// An adapter owns the platform connection and exposes three capabilities to
// the rest of the bot:
//
//   - intake: inbound events are normalised into BotMessage values and handed
//     to the handler passed to Start
//   - identity: ResolveUser maps a platform user id to a UserProfile
//   - dispatch: SendMessage posts a rich-text message to a channel
//
// Only Slack (socket mode) is implemented.
//
// # Usage
//
//	slackBot, err := bot.NewSlackBot(bot.SlackConfig{AppToken: app, BotToken: tok})
//	if err != nil {
//	    return err
//	}
//	err = slackBot.Start(ctx, func(msg bot.BotMessage) {
//	    msg.Ack()
//	    _ = msg.Reply(ctx, "got it")
//	})
//
// # Thread Safety
//
// The handler passed to Start is called from the adapter's event loop; it is
// expected to return quickly and do long-running work on its own goroutine.
// SendMessage and ResolveUser are safe for concurrent use.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUserNotFound is returned by ResolveUser when the directory has no usable
// profile for the user. Callers degrade to a fallback greeting.
var ErrUserNotFound = errors.New("user not found")

// BotAdapter defines the interface for bot adapters
type BotAdapter interface {
	// Start connects to the platform and delivers inbound events to
	// messageHandler until ctx is cancelled or the connection fails
	Start(ctx context.Context, messageHandler func(BotMessage)) error

	// SendMessage posts a rich-text message to a channel
	SendMessage(ctx context.Context, channel, message string) error

	// ResolveUser fetches the directory profile of a user
	ResolveUser(ctx context.Context, userID string) (*UserProfile, error)
}

// MessageKind distinguishes the inbound event variants
type MessageKind int

const (
	// KindMessage is a plain channel or DM message
	KindMessage MessageKind = iota
	// KindSlashCommand is an explicit slash command invocation
	KindSlashCommand
)

func (k MessageKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindSlashCommand:
		return "slash_command"
	default:
		return "unknown"
	}
}

// BotMessage represents one inbound event
type BotMessage struct {
	ID        string // Interaction id, correlates the log lines of one event
	Kind      MessageKind
	Platform  string // slack
	UserID    string // Sender of the event
	Channel   string // Conversation the event came from
	Command   string // Slash command name, empty for plain messages
	Content   string // Message text or slash command payload
	Timestamp time.Time

	// AckFunc acknowledges receipt to the platform
	AckFunc func()
	// ReplyFunc posts text into the originating conversation
	ReplyFunc func(ctx context.Context, text string) error
}

// Ack acknowledges the event. Calling it more than once has no further effect
// when the adapter wraps AckFunc with OnceAck.
func (m BotMessage) Ack() {
	if m.AckFunc != nil {
		m.AckFunc()
	}
}

// Reply posts text into the conversation the event came from
func (m BotMessage) Reply(ctx context.Context, text string) error {
	if m.ReplyFunc == nil {
		return errors.New("message has no reply target")
	}
	return m.ReplyFunc(ctx, text)
}

// OnceAck wraps ack so that only its first call reaches the platform
func OnceAck(ack func()) func() {
	var once sync.Once
	return func() {
		once.Do(ack)
	}
}

// UserProfile is the directory entry of a platform user. It is fetched fresh
// for every event and never cached.
type UserProfile struct {
	ID          string
	Name        string
	DisplayName string
	RealName    string
	Email       string // Empty when the bot lacks the users:read.email scope
}
