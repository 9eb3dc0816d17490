package constants

import "time"

// Platform identifiers
const (
	// PlatformSlack is the platform name carried by Slack bot messages
	PlatformSlack = "slack"
)

// Slack defaults
const (
	// DefaultResultChannel is where finished research summaries are posted
	DefaultResultChannel = "ai-powered-services"
	// DefaultSlashCommand is the slash command that triggers a deep search
	DefaultSlashCommand = "/deep-search"
	// SlackAppTokenPrefix is the prefix of app-level (socket mode) tokens
	SlackAppTokenPrefix = "xapp-"
	// SlackBotTokenPrefix is the prefix of bot user OAuth tokens
	SlackBotTokenPrefix = "xoxb-"
)

// Agent invocation settings
const (
	// MaxResearchLoops is the refinement loop budget handed to the agent
	MaxResearchLoops = 2
	// InitialSearchQueryCount is the initial search breadth handed to the agent
	InitialSearchQueryCount = 3
	// DefaultAssistantID is the graph id used when none is configured
	DefaultAssistantID = "agent"
	// DefaultAgentTimeout bounds a single agent invocation
	DefaultAgentTimeout = 15 * time.Minute
	// MaxErrorBodyLength is how much of a failed agent response is kept in the error
	MaxErrorBodyLength = 512
)

// User-facing texts
const (
	// IdentityFallback replaces the user's name when the directory lookup fails
	IdentityFallback = "🤖"
	// PongFallback is the ping reply when the user could not be resolved
	PongFallback = "Pong! 🤖"
	// PongFormat is the ping reply for a resolved user
	PongFormat = "Pong! Hello %s 👋"
	// QueryAckFormat acknowledges a submitted query (name, query)
	QueryAckFormat = "%s just submitted a new Query:\nQuery: \"%s\"\nThanks for reaching out! We'll get back to you soon."
	// ResearchStartedNotice is announced right before the agent is invoked
	ResearchStartedNotice = "Starting deep research... This may take a few minutes. Please wait."
	// ResearchCompletedNotice is announced after the agent returns
	ResearchCompletedNotice = "Research completed. Preparing the summary..."
	// ResearchFailedNotice is announced when the agent invocation fails
	ResearchFailedNotice = "Sorry, something went wrong while researching your query. Please try again later."
	// StartupGreeting follows the timestamp in the online announcement
	StartupGreeting = "Hello everyone! Praxi is online and ready to help. 😊"
	// StartupTimeLayout renders the online announcement time, e.g. "14:05:09 on Monday"
	StartupTimeLayout = "15:04:05 on Monday"
)

// Token masking
const (
	// MinTokenLengthForMasking is the minimum token length to apply masking
	MinTokenLengthForMasking = 10
	// TokenMaskPrefixLength is the length of prefix to show before masking
	TokenMaskPrefixLength = 5
	// TokenMaskSuffixLength is the length of suffix to show after masking
	TokenMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated files to keep
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
