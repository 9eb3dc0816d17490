package research

import "regexp"

var emphasisRun = regexp.MustCompile(`\*{2,}`)

// NormalizeMarkdown collapses every run of two or more '*' into a single '*'.
// Slack mrkdwn uses a single asterisk for bold, so "**Sunny**" becomes "*Sunny*".
// The transform is idempotent.
func NormalizeMarkdown(text string) string {
	return emphasisRun.ReplaceAllLiteralString(text, "*")
}
