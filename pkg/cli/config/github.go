package config

import (
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// GitHub holds hosting API configuration. The token is optional; without it
// polling runs unauthenticated under a much lower rate limit ceiling.
type GitHub struct {
	token string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub API token (optional, raises the rate limit)",
			Destination: &c.token,
			Sources:     cli.EnvVars("FORKWATCH_GITHUB_TOKEN"),
		},
	}
}

// Token returns the credential as a redactable type.
func (c *GitHub) Token() types.GitHubToken {
	return types.GitHubToken(c.token)
}
