package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/keepmind9/praxi/internal/core"
	"github.com/spf13/cobra"
)

var validateJSON bool

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid         bool     `json:"valid"`
	Config        string   `json:"config"`
	Channel       string   `json:"channel,omitempty"`
	ResultChannel string   `json:"result_channel,omitempty"`
	SlashCommand  string   `json:"slash_command,omitempty"`
	AgentURL      string   `json:"agent_url,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate praxi configuration",
	Long: `Validate the praxi configuration without connecting to Slack.

This command checks:
  - YAML syntax and ${VAR} references
  - Required keys (tokens, channel, agent url)
  - Token kinds, slash command name and agent timeout

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	Run: func(cmd *cobra.Command, args []string) {
		result := runValidate()
		outputValidationResult(cmd.OutOrStdout(), result, validateJSON)
		if !result.Valid {
			os.Exit(1)
		}
	},
}

func runValidate() ValidationResult {
	cfg, path, err := loadConfig()
	source := path
	if source == "" {
		source = "(environment)"
	}
	if err != nil {
		return ValidationResult{
			Valid:  false,
			Config: source,
			Errors: []string{err.Error()},
		}
	}

	return ValidationResult{
		Valid:         true,
		Config:        source,
		Channel:       cfg.Slack.Channel,
		ResultChannel: cfg.Slack.ResultChannel,
		SlashCommand:  cfg.Slack.SlashCommand,
		AgentURL:      cfg.Agent.URL,
		Warnings:      validateConfigDetails(cfg),
	}
}

// validateConfigDetails reports settings that load fine but are likely mistakes
func validateConfigDetails(cfg *core.Config) []string {
	var warnings []string
	if cfg.Slack.Channel == cfg.Slack.ResultChannel {
		warnings = append(warnings, "channel and result_channel are the same - announcements and summaries will mix")
	}
	if cfg.Agent.APIKey == "" {
		warnings = append(warnings, "agent.api_key is empty - requests are sent unauthenticated")
	}
	return warnings
}

func outputValidationResult(w io.Writer, result ValidationResult, jsonFormat bool) {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			fmt.Fprintf(w, "{\"error\": \"failed to marshal json: %v\"}\n", err)
			return
		}
		fmt.Fprintln(w, string(output))
		return
	}

	if !result.Valid {
		fmt.Fprintln(w, "❌ Configuration validation failed:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", errMsg)
		}
		return
	}

	fmt.Fprintln(w, "✓ Configuration is valid")
	fmt.Fprintf(w, "  - Config: %s\n", result.Config)
	fmt.Fprintf(w, "  - Channel: %s\n", result.Channel)
	fmt.Fprintf(w, "  - Result channel: %s\n", result.ResultChannel)
	fmt.Fprintf(w, "  - Slash command: %s\n", result.SlashCommand)
	fmt.Fprintf(w, "  - Agent: %s\n", result.AgentURL)
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\n⚠️  Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
