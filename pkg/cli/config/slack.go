package config

import (
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack notification configuration. Both fields must be set to
// enable notifications.
type Slack struct {
	token   string
	Channel string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-token",
			Usage:       "Slack bot token for hard fork notifications",
			Destination: &c.token,
			Sources:     cli.EnvVars("FORKWATCH_SLACK_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID for hard fork notifications",
			Destination: &c.Channel,
			Sources:     cli.EnvVars("FORKWATCH_SLACK_CHANNEL"),
		},
	}
}

// Token returns the credential as a redactable type.
func (c *Slack) Token() types.SlackToken {
	return types.SlackToken(c.token)
}

// Enabled reports whether notifications are configured.
func (c *Slack) Enabled() bool {
	return c.token != "" && c.Channel != ""
}
