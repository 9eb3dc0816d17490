package core

import (
	"context"
	"fmt"
	"regexp"

	"github.com/keepmind9/praxi/internal/bot"
	"github.com/keepmind9/praxi/internal/logger"
	"github.com/keepmind9/praxi/internal/research"
	"github.com/keepmind9/praxi/pkg/constants"
	"github.com/sirupsen/logrus"
)

// searchPattern captures everything after "search:" and any whitespace,
// newlines included
var searchPattern = regexp.MustCompile(`^search:\s*((?s:.*))`)

const (
	routePing       = "ping"
	routeSearch     = "search"
	routeDeepSearch = "deep-search"
	pingTrigger     = "ping"
)

// registerRoutes builds the routing table
func (e *Engine) registerRoutes() {
	e.router.Handle(routePing, Exact(pingTrigger), e.handlePing)
	e.router.Handle(routeSearch, Pattern(searchPattern), e.handleSearch)
	e.router.Handle(routeDeepSearch, Command(e.config.Slack.SlashCommand), e.handleDeepSearch)
}

// handlePing greets the sender by real name. A lookup that errors or returns
// no profile gets the fallback reply.
func (e *Engine) handlePing(ctx context.Context, msg bot.BotMessage, _ []string) error {
	text := constants.PongFallback
	profile, err := e.bot.ResolveUser(ctx, msg.UserID)
	switch {
	case err != nil:
		logger.ForInteraction(msg.ID).WithFields(logrus.Fields{
			"user_id": msg.UserID,
			"error":   err,
		}).Warn("ping-identity-lookup-failed")
	case profile == nil:
		logger.ForInteraction(msg.ID).WithField("user_id", msg.UserID).Warn("ping-identity-lookup-empty")
	default:
		text = fmt.Sprintf(constants.PongFormat, profile.RealName)
	}

	if err := msg.Reply(ctx, text); err != nil {
		logger.ForInteraction(msg.ID).WithField("error", err).Warn("ping-reply-failed")
	}
	return nil
}

// handleSearch runs the query captured from "search: <query>"
func (e *Engine) handleSearch(ctx context.Context, msg bot.BotMessage, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	return e.runResearch(ctx, msg, query)
}

// handleDeepSearch runs the slash command payload as the query
func (e *Engine) handleDeepSearch(ctx context.Context, msg bot.BotMessage, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	return e.runResearch(ctx, msg, query)
}

func (e *Engine) runResearch(ctx context.Context, msg bot.BotMessage, query string) error {
	announce := func(ctx context.Context, text string) {
		if err := msg.Reply(ctx, text); err != nil {
			logger.ForInteraction(msg.ID).WithFields(logrus.Fields{
				"channel": msg.Channel,
				"error":   err,
			}).Warn("research-announcement-failed")
		}
	}

	_, err := e.research.Run(ctx, research.Request{
		InteractionID: msg.ID,
		UserID:        msg.UserID,
		Query:         query,
	}, announce)
	return err
}
