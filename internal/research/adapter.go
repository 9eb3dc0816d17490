// Package research relays user queries to the external research agent and
// posts the agent's answer back to Slack.
package research

import (
	"context"
	"fmt"
	"time"

	"github.com/keepmind9/praxi/internal/bot"
	"github.com/keepmind9/praxi/internal/logger"
	"github.com/keepmind9/praxi/pkg/constants"
	"github.com/sirupsen/logrus"
)

// IdentityResolver looks up the sender of a query
type IdentityResolver interface {
	ResolveUser(ctx context.Context, userID string) (*bot.UserProfile, error)
}

// Dispatcher posts the final summary
type Dispatcher interface {
	SendMessage(ctx context.Context, channel, message string) error
}

// Announcer shows progress to the user who asked
type Announcer func(ctx context.Context, text string)

// AdapterConfig wires an Adapter
type AdapterConfig struct {
	Identity      IdentityResolver
	Dispatcher    Dispatcher
	Agent         Agent
	ResultChannel string        // Destination of every summary
	Timeout       time.Duration // Upper bound of one agent run, 0 means none
}

// Adapter runs one query through the agent per call. It holds no per-request state.
type Adapter struct {
	identity      IdentityResolver
	dispatcher    Dispatcher
	agent         Agent
	resultChannel string
	timeout       time.Duration
}

// NewAdapter creates an Adapter
func NewAdapter(cfg AdapterConfig) *Adapter {
	resultChannel := cfg.ResultChannel
	if resultChannel == "" {
		resultChannel = constants.DefaultResultChannel
	}
	return &Adapter{
		identity:      cfg.Identity,
		dispatcher:    cfg.Dispatcher,
		agent:         cfg.Agent,
		resultChannel: resultChannel,
		timeout:       cfg.Timeout,
	}
}

// Request is one research query
type Request struct {
	InteractionID string
	UserID        string
	Query         string
}

// Run acknowledges the query, invokes the agent, and posts the normalised
// answer to the result channel. Each progress notice is announced before the
// next step starts. On agent failure the user is told and the error returned.
func (a *Adapter) Run(ctx context.Context, req Request, announce Announcer) (string, error) {
	if announce == nil {
		announce = func(context.Context, string) {}
	}
	log := logger.ForInteraction(req.InteractionID).WithField("user_id", req.UserID)

	name := constants.IdentityFallback
	if profile, err := a.identity.ResolveUser(ctx, req.UserID); err == nil {
		name = DisplayName(profile)
	} else {
		log.WithField("error", err).Warn("identity-resolution-failed-using-fallback")
	}
	announce(ctx, fmt.Sprintf(constants.QueryAckFormat, name, req.Query))
	announce(ctx, constants.ResearchStartedNotice)

	runCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	log.WithField("query", req.Query).Info("agent-invocation-started")

	result, err := a.agent.Invoke(runCtx, NewAgentQuery(req.Query))
	if err != nil {
		log.WithFields(logrus.Fields{
			"error":    err,
			"duration": time.Since(started).String(),
		}).Error("agent-invocation-failed")
		announce(ctx, constants.ResearchFailedNotice)
		return "", fmt.Errorf("agent invocation failed: %w", err)
	}

	log.WithField("duration", time.Since(started).String()).Info("agent-invocation-completed")
	announce(ctx, constants.ResearchCompletedNotice)

	text, err := result.FinalMessage()
	if err != nil {
		log.WithField("error", err).Error("agent-result-unreadable")
		announce(ctx, constants.ResearchFailedNotice)
		return "", err
	}

	summary := NormalizeMarkdown(text)
	if err := a.dispatcher.SendMessage(ctx, a.resultChannel, summary); err != nil {
		log.WithFields(logrus.Fields{
			"channel": a.resultChannel,
			"error":   err,
		}).Warn("summary-delivery-failed")
	}
	return summary, nil
}

// DisplayName picks the name shown to other users. Real name wins; nil
// profiles get the identity fallback.
func DisplayName(profile *bot.UserProfile) string {
	switch {
	case profile == nil:
		return constants.IdentityFallback
	case profile.RealName != "":
		return profile.RealName
	case profile.DisplayName != "":
		return profile.DisplayName
	case profile.Name != "":
		return profile.Name
	default:
		return constants.IdentityFallback
	}
}
