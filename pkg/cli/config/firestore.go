package config

import "github.com/urfave/cli/v3"

// Firestore holds Firestore configuration. When the project ID is empty,
// watermarks and updates stay in memory.
type Firestore struct {
	ProjectID  string
	DatabaseID string
}

// Flags returns CLI flags for Firestore configuration
func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID for Firestore persistence",
			Destination: &c.ProjectID,
			Sources:     cli.EnvVars("FORKWATCH_FIRESTORE_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID (default database when empty)",
			Destination: &c.DatabaseID,
			Sources:     cli.EnvVars("FORKWATCH_FIRESTORE_DATABASE"),
		},
	}
}

// Enabled reports whether Firestore persistence is configured.
func (c *Firestore) Enabled() bool {
	return c.ProjectID != ""
}
