package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Scheduler holds polling cadence overrides. The interval normally comes
// from the sources file; a non-zero flag value wins.
type Scheduler struct {
	IntervalMinutes int64
	SourceDelaySec  int64
}

// Flags returns CLI flags for scheduler configuration
func (c *Scheduler) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "interval-min",
			Usage:       "Polling interval in minutes (overrides the sources file when set)",
			Destination: &c.IntervalMinutes,
			Sources:     cli.EnvVars("FORKWATCH_INTERVAL_MIN"),
		},
		&cli.Int64Flag{
			Name:        "source-delay-sec",
			Usage:       "Delay between sources within a cycle",
			Value:       1,
			Destination: &c.SourceDelaySec,
			Sources:     cli.EnvVars("FORKWATCH_SOURCE_DELAY_SEC"),
		},
	}
}

// Interval resolves the polling interval, preferring the flag over the
// sources file value.
func (c *Scheduler) Interval(fromFile time.Duration) time.Duration {
	if c.IntervalMinutes > 0 {
		return time.Duration(c.IntervalMinutes) * time.Minute
	}
	return fromFile
}

// SourceDelay returns the inter-source delay.
func (c *Scheduler) SourceDelay() time.Duration {
	return time.Duration(c.SourceDelaySec) * time.Second
}
