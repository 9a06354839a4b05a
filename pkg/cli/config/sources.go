package config

import (
	"os"
	"time"

	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

const defaultIntervalMinutes = 30

// Sources holds the path of the monitored sources file.
type Sources struct {
	Path string
}

// Flags returns CLI flags for source configuration
func (c *Sources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sources",
			Usage:       "Path to TOML file listing monitored repositories",
			Required:    true,
			Destination: &c.Path,
			Sources:     cli.EnvVars("FORKWATCH_SOURCES"),
		},
	}
}

type sourcesFile struct {
	IntervalMinutes int            `toml:"interval_minutes"`
	Sources         []model.Source `toml:"sources"`
}

// Load reads and validates the sources file, returning the source list and
// the polling interval.
func (c *Sources) Load() ([]model.Source, time.Duration, error) {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to read sources file",
			goerr.T(types.ErrTagConfig), goerr.V("path", c.Path))
	}

	var file sourcesFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to parse sources file",
			goerr.T(types.ErrTagConfig), goerr.V("path", c.Path))
	}

	seen := map[types.SourceID]struct{}{}
	for _, src := range file.Sources {
		if src.ID == "" {
			return nil, 0, goerr.New("source ID must not be empty",
				goerr.T(types.ErrTagConfig), goerr.V("repository_url", src.RepositoryURL))
		}
		if _, ok := seen[src.ID]; ok {
			return nil, 0, goerr.New("duplicate source ID",
				goerr.T(types.ErrTagConfig), goerr.V("source_id", src.ID))
		}
		seen[src.ID] = struct{}{}

		if !src.FetchMode.IsValid() {
			return nil, 0, goerr.New("invalid fetch mode",
				goerr.T(types.ErrTagConfig),
				goerr.V("source_id", src.ID), goerr.V("fetch_mode", src.FetchMode))
		}
		if src.RepositoryURL == "" {
			return nil, 0, goerr.New("repository URL must not be empty",
				goerr.T(types.ErrTagConfig), goerr.V("source_id", src.ID))
		}
	}

	minutes := file.IntervalMinutes
	if minutes <= 0 {
		minutes = defaultIntervalMinutes
	}

	return file.Sources, time.Duration(minutes) * time.Minute, nil
}
