package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keepmind9/praxi/internal/logger"
	"github.com/keepmind9/praxi/pkg/constants"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/sync/errgroup"
)

// SlackAPI is the subset of *slack.Client the adapter uses.
// This allows us to mock it in tests without a Slack workspace.
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SocketModeClient is the subset of *socketmode.Client the adapter uses
type SocketModeClient interface {
	RunContext(ctx context.Context) error
	Ack(req socketmode.Request, payload ...interface{})
}

// forwardedSubtypes are message subtypes authored by people. Edits, deletes,
// joins and other system subtypes are dropped.
var forwardedSubtypes = map[string]bool{
	"":                 true,
	"file_share":       true,
	"thread_broadcast": true,
	"me_message":       true,
}

// SlackConfig holds the credentials of the Slack app
type SlackConfig struct {
	AppToken string // xapp-*, opens the socket mode connection
	BotToken string // xoxb-*, authorises Web API calls
	Debug    bool   // Enables slack-go's own debug output
}

// SlackBot implements BotAdapter over Slack socket mode
type SlackBot struct {
	mu        sync.RWMutex
	appToken  string
	botToken  string
	api       SlackAPI
	socket    SocketModeClient
	events    <-chan socketmode.Event
	botUserID string
}

// NewSlackBot creates a Slack adapter. The connection is opened by Start.
func NewSlackBot(cfg SlackConfig) (*SlackBot, error) {
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("slack app token is required")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack bot token is required")
	}

	api := slack.New(
		cfg.BotToken,
		slack.OptionAppLevelToken(cfg.AppToken),
		slack.OptionDebug(cfg.Debug),
	)
	socket := socketmode.New(api, socketmode.OptionDebug(cfg.Debug))

	s := newSlackBotWithClients(api, socket, socket.Events)
	s.appToken = cfg.AppToken
	s.botToken = cfg.BotToken
	return s, nil
}

func newSlackBotWithClients(api SlackAPI, socket SocketModeClient, events <-chan socketmode.Event) *SlackBot {
	return &SlackBot{
		api:    api,
		socket: socket,
		events: events,
	}
}

// Start authenticates, opens the socket mode connection and delivers inbound
// events to messageHandler. It blocks until ctx is cancelled or the
// connection fails.
func (s *SlackBot) Start(ctx context.Context, messageHandler func(BotMessage)) error {
	if s.api == nil || s.socket == nil {
		return fmt.Errorf("slack client not initialized")
	}

	logger.WithFields(logrus.Fields{
		"app_token": maskSecret(s.appToken),
		"bot_token": maskSecret(s.botToken),
	}).Info("starting-slack-bot")

	auth, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate with slack: %w", err)
	}

	s.mu.Lock()
	s.botUserID = auth.UserID
	s.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_user_id": auth.UserID,
		"team":        auth.Team,
	}).Info("slack-bot-authenticated")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.socket.RunContext(gctx)
	})
	g.Go(func() error {
		s.handleEvents(gctx, messageHandler)
		return nil
	})
	return g.Wait()
}

// handleEvents drains the socket mode event channel
func (s *SlackBot) handleEvents(ctx context.Context, messageHandler func(BotMessage)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.events:
			if !ok {
				return
			}
			s.handleEvent(evt, messageHandler)
		}
	}
}

func (s *SlackBot) handleEvent(evt socketmode.Event, messageHandler func(BotMessage)) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logger.Info("slack-socket-mode-connecting")

	case socketmode.EventTypeConnected:
		logger.Info("slack-socket-mode-connected")

	case socketmode.EventTypeConnectionError:
		logger.WithField("data", evt.Data).Error("slack-socket-mode-connection-error")

	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			s.ack(evt)
			return
		}
		msg, ok := s.messageFromEvent(eventsAPIEvent)
		if !ok || messageHandler == nil {
			s.ack(evt)
			return
		}
		msg.AckFunc = s.ackFunc(evt)
		messageHandler(msg)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok || messageHandler == nil {
			s.ack(evt)
			return
		}
		logger.WithFields(logrus.Fields{
			"platform": constants.PlatformSlack,
			"command":  cmd.Command,
			"user_id":  cmd.UserID,
			"channel":  cmd.ChannelID,
		}).Debug("received-slack-slash-command")

		messageHandler(BotMessage{
			Kind:      KindSlashCommand,
			Platform:  constants.PlatformSlack,
			UserID:    cmd.UserID,
			Channel:   cmd.ChannelID,
			Command:   cmd.Command,
			Content:   cmd.Text,
			Timestamp: time.Now(),
			AckFunc:   s.ackFunc(evt),
			ReplyFunc: s.replyFunc(cmd.ChannelID),
		})

	default:
		logger.WithField("type", string(evt.Type)).Debug("unhandled-slack-event")
		s.ack(evt)
	}
}

// messageFromEvent converts a callback message event into a BotMessage.
// Events from bots (including ourselves) and system subtypes are dropped.
func (s *SlackBot) messageFromEvent(event slackevents.EventsAPIEvent) (BotMessage, bool) {
	if event.Type != slackevents.CallbackEvent {
		return BotMessage{}, false
	}
	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return BotMessage{}, false
	}

	s.mu.RLock()
	botUserID := s.botUserID
	s.mu.RUnlock()

	if ev.User == "" || ev.User == botUserID || ev.BotID != "" || !forwardedSubtypes[ev.SubType] {
		return BotMessage{}, false
	}

	logger.WithFields(logrus.Fields{
		"platform": constants.PlatformSlack,
		"user_id":  ev.User,
		"channel":  ev.Channel,
		"content":  ev.Text,
	}).Debug("received-slack-message")

	return BotMessage{
		Kind:      KindMessage,
		Platform:  constants.PlatformSlack,
		UserID:    ev.User,
		Channel:   ev.Channel,
		Content:   ev.Text,
		Timestamp: time.Now(),
		ReplyFunc: s.replyFunc(ev.Channel),
	}, true
}

func (s *SlackBot) ack(evt socketmode.Event) {
	if evt.Request != nil {
		s.socket.Ack(*evt.Request)
	}
}

func (s *SlackBot) ackFunc(evt socketmode.Event) func() {
	return OnceAck(func() { s.ack(evt) })
}

func (s *SlackBot) replyFunc(channel string) func(ctx context.Context, text string) error {
	return func(ctx context.Context, text string) error {
		return s.SendMessage(ctx, channel, text)
	}
}

// SendMessage posts a rich-text message. Failures are logged with the
// platform error code and returned; callers are not expected to abort.
func (s *SlackBot) SendMessage(ctx context.Context, channel, message string) error {
	if s.api == nil {
		return fmt.Errorf("slack client not initialized")
	}
	if channel == "" {
		return fmt.Errorf("channel is required")
	}

	params := slack.NewPostMessageParameters()
	params.Markdown = true
	_, ts, err := s.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(message, false),
		slack.MsgOptionPostMessageParameters(params),
	)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"channel": channel,
			"error":   slackErrorCode(err),
		}).Error("failed-to-send-message-to-slack")
		return fmt.Errorf("failed to send message to channel %s: %w", channel, err)
	}

	logger.WithFields(logrus.Fields{
		"channel": channel,
		"ts":      ts,
	}).Info("message-sent-to-slack")
	return nil
}

// ResolveUser fetches the profile of userID from the Slack directory.
// Every failure is reported as ErrUserNotFound, wrapping the platform error.
func (s *SlackBot) ResolveUser(ctx context.Context, userID string) (*UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrUserNotFound)
	}
	if s.api == nil {
		return nil, fmt.Errorf("%w: slack client not initialized", ErrUserNotFound)
	}

	user, err := s.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   slackErrorCode(err),
		}).Warn("slack-user-info-failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrUserNotFound, userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	realName := user.RealName
	if realName == "" {
		realName = user.Profile.RealName
	}

	return &UserProfile{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.Profile.DisplayName,
		RealName:    realName,
		Email:       user.Profile.Email,
	}, nil
}

// IsNotFound reports whether err came from a failed identity lookup
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
