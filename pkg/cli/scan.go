package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/forkwatch/pkg/cli/config"
	"github.com/m-mizutani/forkwatch/pkg/domain/model"
	githubinfra "github.com/m-mizutani/forkwatch/pkg/infra/github"
	"github.com/m-mizutani/forkwatch/pkg/infra/memory"
	"github.com/m-mizutani/forkwatch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdScan() *cli.Command {
	var (
		githubCfg  config.GitHub
		sourcesCfg config.Sources
	)

	flags := append(githubCfg.Flags(), sourcesCfg.Flags()...)

	return &cli.Command{
		Name:  "scan",
		Usage: "Poll all sources once and print the detections",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			sources, _, err := sourcesCfg.Load()
			if err != nil {
				return err
			}

			client, err := githubinfra.New(githubinfra.WithToken(githubCfg.Token()))
			if err != nil {
				return err
			}

			poller := usecase.NewPoller(client, memory.NewWatermarkStore())

			for _, src := range sources {
				if !src.Enabled {
					continue
				}

				result, err := poller.PollSource(ctx, src)
				if err != nil {
					logger.Error("Failed to poll source", "source_id", src.ID, "error", err)
					continue
				}

				printResult(result)
			}

			return nil
		},
	}
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	forkColor   = color.New(color.FgRed, color.Bold)
	dimColor    = color.New(color.Faint)
	warnColor   = color.New(color.FgYellow)
)

func printResult(result *model.PollResult) {
	headerColor.Printf("== %s (%s)\n", result.Source.Name, result.Source.RepositoryURL)

	if len(result.Updates) == 0 {
		dimColor.Println("   no updates")
	}
	for _, update := range result.Updates {
		if update.Classification.HasHardFork {
			forkColor.Printf("   [HARD FORK] %s", update.Record.Tag)
			fmt.Printf("  confidence=%.2f (%s)", update.Confidence, update.Classification.Confidence)
			if update.Record.ForkDate != nil {
				fmt.Printf("  fork_date=%s", update.Record.ForkDate.Format("2006-01-02"))
			}
			fmt.Println()
		} else {
			fmt.Printf("   %s  type=%s  confidence=%.2f\n",
				update.Record.Tag, update.Classification.ReleaseType, update.Confidence)
		}
	}

	for _, msg := range result.Errors {
		warnColor.Printf("   warn: %s\n", msg)
	}
}
