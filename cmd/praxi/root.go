package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "praxi",
	Short: "praxi is a Slack bot that relays research queries to an AI agent",
	Long: `praxi is a Slack bot that listens over socket mode, answers "ping",
and hands "search: <query>" messages and the /deep-search slash command to an
external research agent. Summaries are posted to a shared results channel.

Running praxi without a subcommand is the same as "praxi start".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart(cmd)
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the configuration")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
