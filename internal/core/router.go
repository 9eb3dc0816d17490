package core

import (
	"context"
	"regexp"

	"github.com/keepmind9/praxi/internal/bot"
)

// Matcher decides whether a route applies to msg. On a match it returns the
// arguments handed to the route's handler.
type Matcher func(msg bot.BotMessage) (args []string, ok bool)

// RouteHandler handles one matched event
type RouteHandler func(ctx context.Context, msg bot.BotMessage, args []string) error

// Route binds a matcher to a handler
type Route struct {
	Name    string
	Match   Matcher
	Handler RouteHandler
}

// Router is an ordered routing table. Routes are evaluated in registration
// order and the first match wins. Registration happens before Run; the table
// is read-only afterwards.
type Router struct {
	routes []Route
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{}
}

// Handle appends a route to the table
func (r *Router) Handle(name string, match Matcher, handler RouteHandler) {
	r.routes = append(r.routes, Route{Name: name, Match: match, Handler: handler})
}

// Routes returns the registered routes in evaluation order
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Dispatch acknowledges msg, then runs the first matching route. It returns
// the matched route name, or "" when nothing matched.
func (r *Router) Dispatch(ctx context.Context, msg bot.BotMessage) (string, error) {
	// Slash commands time out on the platform side unless acked first
	msg.Ack()

	for _, route := range r.routes {
		args, ok := route.Match(msg)
		if !ok {
			continue
		}
		return route.Name, route.Handler(ctx, msg, args)
	}
	return "", nil
}

// Exact matches plain messages whose text is exactly text
func Exact(text string) Matcher {
	return func(msg bot.BotMessage) ([]string, bool) {
		if msg.Kind != bot.KindMessage || msg.Content != text {
			return nil, false
		}
		return nil, true
	}
}

// Pattern matches plain messages against re; capture groups become the args
func Pattern(re *regexp.Regexp) Matcher {
	return func(msg bot.BotMessage) ([]string, bool) {
		if msg.Kind != bot.KindMessage {
			return nil, false
		}
		m := re.FindStringSubmatch(msg.Content)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	}
}

// Command matches invocations of the slash command name; the payload text is
// the single arg
func Command(name string) Matcher {
	return func(msg bot.BotMessage) ([]string, bool) {
		if msg.Kind != bot.KindSlashCommand || msg.Command != name {
			return nil, false
		}
		return []string{msg.Content}, true
	}
}
