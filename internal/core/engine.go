package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keepmind9/praxi/internal/bot"
	"github.com/keepmind9/praxi/internal/logger"
	"github.com/keepmind9/praxi/internal/research"
	"github.com/keepmind9/praxi/pkg/constants"
	"github.com/sirupsen/logrus"
)

// Engine owns the bot process: it announces itself, receives events from the
// bot adapter and dispatches each one on its own goroutine
type Engine struct {
	config   *Config
	bot      bot.BotAdapter
	router   *Router
	research *research.Adapter
	now      func() time.Time

	mu     sync.RWMutex
	ctx    context.Context    // Context handed to handlers, set by Run
	cancel context.CancelFunc // Cancel function for shutdown
}

// NewEngine creates a new Engine instance
func NewEngine(config *Config, adapter bot.BotAdapter, agent research.Agent) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		config: config,
		bot:    adapter,
		router: NewRouter(),
		research: research.NewAdapter(research.AdapterConfig{
			Identity:      adapter,
			Dispatcher:    adapter,
			Agent:         agent,
			ResultChannel: config.Slack.ResultChannel,
			Timeout:       config.Agent.TimeoutDuration(),
		}),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	e.registerRoutes()
	return e
}

// Router returns the engine's routing table
func (e *Engine) Router() *Router {
	return e.router
}

// Run announces the bot in the default channel, then blocks delivering
// events until ctx is cancelled, Stop is called, or the connection fails
func (e *Engine) Run(ctx context.Context) error {
	logger.Info("starting-praxi-engine")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.cancel()
	e.ctx, e.cancel = ctx, cancel
	e.mu.Unlock()

	e.announceOnline(ctx)

	err := e.bot.Start(ctx, e.HandleBotMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}

func (e *Engine) announceOnline(ctx context.Context) {
	text := fmt.Sprintf("%s | %s", e.now().Format(constants.StartupTimeLayout), constants.StartupGreeting)
	if err := e.bot.SendMessage(ctx, e.config.Slack.Channel, text); err != nil {
		logger.WithFields(logrus.Fields{
			"channel": e.config.Slack.Channel,
			"error":   err,
		}).Warn("failed-to-announce-online")
		return
	}
	logger.WithField("channel", e.config.Slack.Channel).Info("online-announcement-sent")
}

// HandleBotMessage starts handling msg on its own goroutine and returns.
// Events are independent: nothing is shared between them but the adapter and
// the configuration.
func (e *Engine) HandleBotMessage(msg bot.BotMessage) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	e.mu.RLock()
	ctx := e.ctx
	e.mu.RUnlock()

	go e.handleMessage(ctx, msg)
}

// handleMessage routes one event. Panics are contained to the event.
func (e *Engine) handleMessage(ctx context.Context, msg bot.BotMessage) {
	log := logger.ForInteraction(msg.ID).WithFields(logrus.Fields{
		"kind":    msg.Kind.String(),
		"user_id": msg.UserID,
		"channel": msg.Channel,
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("handler-panic-recovered")
		}
	}()

	started := time.Now()
	route, err := e.router.Dispatch(ctx, msg)
	if route == "" {
		log.Debug("no-route-matched")
		return
	}

	log = log.WithFields(logrus.Fields{
		"route":    route,
		"duration": time.Since(started).String(),
	})
	if err != nil {
		log.WithField("error", err).Error("route-handler-failed")
		return
	}
	log.Info("route-handled")
}

// Stop cancels the engine context. In-flight handlers are not drained.
func (e *Engine) Stop() error {
	logger.Info("stopping-praxi-engine")

	e.mu.RLock()
	cancel := e.cancel
	e.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	return nil
}
