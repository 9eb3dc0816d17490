package core

import "time"

// Config represents the complete praxi configuration structure
type Config struct {
	Slack   SlackConfig   `yaml:"slack"`
	Agent   AgentConfig   `yaml:"agent"`
	Logging LoggingConfig `yaml:"logging"`
}

// SlackConfig represents the Slack app configuration
type SlackConfig struct {
	AppToken      string `yaml:"app_token" env:"SLACK_APP_TOKEN"`           // xapp-*, socket mode
	BotToken      string `yaml:"bot_token" env:"SLACK_BOT_TOKEN"`           // xoxb-*, Web API
	Channel       string `yaml:"channel" env:"SLACK_CHANNEL"`               // Receives the online announcement
	ResultChannel string `yaml:"result_channel" env:"SLACK_RESULT_CHANNEL"` // Receives every research summary
	SlashCommand  string `yaml:"slash_command" env:"SLACK_SLASH_COMMAND"`   // Default: /deep-search
	Debug         bool   `yaml:"debug" env:"SLACK_DEBUG"`
}

// AgentConfig represents the research agent endpoint configuration
type AgentConfig struct {
	URL         string `yaml:"url" env:"AGENT_URL"`
	AssistantID string `yaml:"assistant_id" env:"AGENT_ASSISTANT_ID"`
	APIKey      string `yaml:"api_key" env:"AGENT_API_KEY"`
	Timeout     string `yaml:"timeout" env:"AGENT_TIMEOUT"` // e.g. "15m"
}

// TimeoutDuration returns the parsed run timeout. Validation guarantees it parses.
func (a AgentConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"` // debug, info, warn, error
	File       string `yaml:"file" env:"LOG_FILE"`   // Log file path
	MaxSize    int    `yaml:"max_size"`              // Single file max size in MB (default: 100)
	MaxBackups int    `yaml:"max_backups"`           // Number of backups to keep (default: 5)
	MaxAge     int    `yaml:"max_age"`               // Maximum days to retain (default: 30)
	Compress   bool   `yaml:"compress"`              // Whether to compress old logs

	// EnableStdout also writes logs to stdout (default: true)
	EnableStdout *bool `yaml:"enable_stdout"`
}

// StdoutEnabled reports whether logs go to stdout
func (l LoggingConfig) StdoutEnabled() bool {
	return l.EnableStdout == nil || *l.EnableStdout
}
