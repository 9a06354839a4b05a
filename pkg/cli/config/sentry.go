package config

import (
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration. Reporting is disabled when
// the DSN is empty.
type Sentry struct {
	DSN string
	Env string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting (disabled when empty)",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("FORKWATCH_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Value:       "production",
			Destination: &c.Env,
			Sources:     cli.EnvVars("FORKWATCH_SENTRY_ENV"),
		},
	}
}

// Configure initializes the Sentry SDK and returns an error reporter hook.
// Returns nil without error when reporting is disabled.
func (c *Sentry) Configure() (func(error), error) {
	if c.DSN == "" {
		return nil, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
		Release:     "forkwatch@" + types.Version,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry", goerr.T(types.ErrTagConfig))
	}

	return func(err error) {
		sentry.CaptureException(err)
	}, nil
}
