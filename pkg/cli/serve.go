package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/forkwatch/pkg/cli/config"
	controller "github.com/m-mizutani/forkwatch/pkg/controller/http"
	"github.com/m-mizutani/forkwatch/pkg/domain/interfaces"
	fsinfra "github.com/m-mizutani/forkwatch/pkg/infra/firestore"
	githubinfra "github.com/m-mizutani/forkwatch/pkg/infra/github"
	"github.com/m-mizutani/forkwatch/pkg/infra/memory"
	"github.com/m-mizutani/forkwatch/pkg/infra/slackx"
	"github.com/m-mizutani/forkwatch/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		githubCfg    config.GitHub
		sourcesCfg   config.Sources
		schedulerCfg config.Scheduler
		firestoreCfg config.Firestore
		slackCfg     config.Slack
		sentryCfg    config.Sentry
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, sourcesCfg.Flags()...)
	flags = append(flags, schedulerCfg.Flags()...)
	flags = append(flags, firestoreCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the polling scheduler and status API",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			sources, fileInterval, err := sourcesCfg.Load()
			if err != nil {
				return err
			}
			interval := schedulerCfg.Interval(fileInterval)

			logger.Info("Starting forkwatch",
				slog.String("addr", serverCfg.Addr),
				slog.Int("sources", len(sources)),
				slog.Duration("interval", interval),
				slog.Bool("firestore", firestoreCfg.Enabled()),
				slog.Bool("slack", slackCfg.Enabled()),
			)

			client, err := githubinfra.New(githubinfra.WithToken(githubCfg.Token()))
			if err != nil {
				return err
			}

			// Storage: Firestore when configured, otherwise in-memory for
			// the process lifetime.
			var (
				watermarks interfaces.WatermarkStore
				sink       interfaces.UpdateSink
				updates    interfaces.UpdateRepository
			)
			if firestoreCfg.Enabled() {
				fsClient, err := fsinfra.New(ctx, firestoreCfg.ProjectID, firestoreCfg.DatabaseID)
				if err != nil {
					return err
				}
				defer func() {
					if err := fsClient.Close(); err != nil {
						logger.Warn("Failed to close firestore client", "error", err)
					}
				}()
				watermarks, sink, updates = fsClient, fsClient, fsClient
			} else {
				updateLog := memory.NewUpdateLog()
				watermarks, sink, updates = memory.NewWatermarkStore(), updateLog, updateLog
			}

			if slackCfg.Enabled() {
				notifier, err := slackx.New(slackCfg.Token(), slackCfg.Channel, sink)
				if err != nil {
					return err
				}
				sink = notifier
			}

			reportErr, err := sentryCfg.Configure()
			if err != nil {
				return err
			}

			poller := usecase.NewPoller(client, watermarks)
			scheduler := usecase.NewScheduler(
				poller,
				memory.StaticSources(sources),
				sink,
				watermarks,
				usecase.WithInterval(interval),
				usecase.WithSourceDelay(schedulerCfg.SourceDelay()),
				usecase.WithErrorReporter(reportErr),
			)

			if err := scheduler.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start scheduler")
			}
			defer scheduler.Stop()

			server, err := controller.NewServer(
				ctx,
				scheduler,
				updates,
				controller.WithAddr(serverCfg.Addr),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
