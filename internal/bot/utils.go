package bot

import (
	"errors"

	"github.com/keepmind9/praxi/pkg/constants"
	"github.com/slack-go/slack"
)

// maskSecret masks sensitive information for logging
func maskSecret(s string) string {
	if len(s) <= constants.MinTokenLengthForMasking {
		return "***"
	}
	return s[:constants.TokenMaskPrefixLength] + "***" + s[len(s)-constants.TokenMaskSuffixLength:]
}

// slackErrorCode returns the platform error code ("user_not_found",
// "ratelimited", ...) carried by err, or err's text when there is none
func slackErrorCode(err error) string {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) {
		return resp.Err
	}
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return "ratelimited"
	}
	return err.Error()
}
