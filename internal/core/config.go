// Package core provides the configuration, routing and engine of praxi.
//
// The core package connects the Slack adapter to the research agent:
//
//   - Configuration loading and validation (.env, YAML, environment)
//   - Command routing: an ordered table of predicate/handler pairs
//   - Route handlers for ping, inline search and the slash command
//   - Engine: startup announcement, event intake and per-event dispatch
//
// # Configuration
//
// Every key may come from the YAML file or the environment; the environment
// wins. Required: slack.app_token, slack.bot_token, slack.channel, agent.url.
//
// # Example Configuration
//
//	slack:
//	  app_token: "${SLACK_APP_TOKEN}"
//	  bot_token: "${SLACK_BOT_TOKEN}"
//	  channel: "general"
//	  result_channel: "ai-powered-services"
//	agent:
//	  url: "http://localhost:2024"
//	  timeout: "15m"
//	logging:
//	  level: "info"
//	  file: "/var/log/praxi/praxi.log"
package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/keepmind9/praxi/pkg/constants"
	"gopkg.in/yaml.v3"
)

// DefaultLogLevel is used when logging.level is unset
const DefaultLogLevel = "info"

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment overrides, defaults and validation. An empty configPath means
// environment only.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		expandedData, err := expandEnv(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to expand environment variables: %w", err)
		}

		if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

func applyDefaults(config *Config) {
	if config.Slack.ResultChannel == "" {
		config.Slack.ResultChannel = constants.DefaultResultChannel
	}
	if config.Slack.SlashCommand == "" {
		config.Slack.SlashCommand = constants.DefaultSlashCommand
	}
	if config.Agent.AssistantID == "" {
		config.Agent.AssistantID = constants.DefaultAssistantID
	}
	if config.Agent.Timeout == "" {
		config.Agent.Timeout = constants.DefaultAgentTimeout.String()
	}

	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}
}

// validateConfig reports every missing required key at once
func validateConfig(config *Config) error {
	var missing []string
	if config.Slack.AppToken == "" {
		missing = append(missing, "slack.app_token (SLACK_APP_TOKEN)")
	}
	if config.Slack.BotToken == "" {
		missing = append(missing, "slack.bot_token (SLACK_BOT_TOKEN)")
	}
	if config.Slack.Channel == "" {
		missing = append(missing, "slack.channel (SLACK_CHANNEL)")
	}
	if config.Agent.URL == "" {
		missing = append(missing, "agent.url (AGENT_URL)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(config.Slack.AppToken, constants.SlackAppTokenPrefix) {
		return fmt.Errorf("slack.app_token must be an app-level token (%s*)", constants.SlackAppTokenPrefix)
	}
	if !strings.HasPrefix(config.Slack.BotToken, constants.SlackBotTokenPrefix) {
		return fmt.Errorf("slack.bot_token must be a bot token (%s*)", constants.SlackBotTokenPrefix)
	}
	if !strings.HasPrefix(config.Slack.SlashCommand, "/") {
		return fmt.Errorf("slack.slash_command must start with '/' (got %q)", config.Slack.SlashCommand)
	}

	timeout, err := time.ParseDuration(config.Agent.Timeout)
	if err != nil {
		return fmt.Errorf("invalid agent.timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("agent.timeout must be positive (got %v)", timeout)
	}

	return nil
}
