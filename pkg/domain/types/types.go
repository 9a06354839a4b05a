package types

// Version is the application version, overridden at build time via ldflags.
var Version = "dev"

// GitHubToken is a GitHub API bearer credential. Declared as a named type so
// that log redaction can match on it.
type GitHubToken string

// SlackToken is a Slack bot token, redacted from logs like GitHubToken.
type SlackToken string

// SourceID identifies a monitored source repository.
type SourceID string

func (x SourceID) String() string {
	return string(x)
}
