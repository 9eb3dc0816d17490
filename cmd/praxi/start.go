package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keepmind9/praxi/internal/bot"
	"github.com/keepmind9/praxi/internal/core"
	"github.com/keepmind9/praxi/internal/logger"
	"github.com/keepmind9/praxi/internal/research"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.yaml"

var (
	configFile string
	envFile    string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the praxi bot",
		Long:  "Connect to Slack over socket mode, announce the bot, and serve ping and research requests until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd)
		},
	}
)

// resolveConfigPath returns the explicit path, else ./config.yaml when it
// exists, else "" meaning environment only
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadConfig loads the dotenv file and then the configuration
func loadConfig() (*core.Config, string, error) {
	if err := core.LoadDotEnv(envFile); err != nil {
		return nil, "", err
	}
	path := resolveConfigPath(configFile)
	config, err := core.LoadConfig(path)
	if err != nil {
		return nil, path, err
	}
	return config, path, nil
}

func runStart(cmd *cobra.Command) error {
	config, path, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := logger.Config{
		Level:        config.Logging.Level,
		File:         config.Logging.File,
		MaxSize:      config.Logging.MaxSize,
		MaxBackups:   config.Logging.MaxBackups,
		MaxAge:       config.Logging.MaxAge,
		Compress:     config.Logging.Compress,
		EnableStdout: config.Logging.StdoutEnabled(),
	}
	if err := logger.InitLogger(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"config_file":    path,
		"log_level":      config.Logging.Level,
		"log_file":       config.Logging.File,
		"channel":        config.Slack.Channel,
		"result_channel": config.Slack.ResultChannel,
		"slash_command":  config.Slack.SlashCommand,
	}).Info("logger-initialized")

	slackBot, err := bot.NewSlackBot(bot.SlackConfig{
		AppToken: config.Slack.AppToken,
		BotToken: config.Slack.BotToken,
		Debug:    config.Slack.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to create slack bot: %w", err)
	}

	agent, err := research.NewHTTPAgent(research.HTTPAgentConfig{
		URL:         config.Agent.URL,
		AssistantID: config.Agent.AssistantID,
		APIKey:      config.Agent.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create research agent: %w", err)
	}

	engine := core.NewEngine(config, slackBot, agent)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineErrChan := make(chan error, 1)
	go func() {
		fmt.Println("praxi starting... Press Ctrl+C to stop")
		engineErrChan <- engine.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown-signal-received")
		if err := engine.Stop(); err != nil {
			logger.WithField("error", err).Warn("engine-stop-failed")
		}
		if err := <-engineErrChan; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case err := <-engineErrChan:
		if err != nil {
			logger.WithField("error", err).Error("engine-stopped-with-error")
			return err
		}
	}

	logger.Info("praxi-stopped")
	return nil
}
