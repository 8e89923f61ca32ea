package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/modsync/pkg/cli/config"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application. SIGINT and SIGTERM cancel the context of the
// running command.
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg  config.Logger
		sentryCfg  config.Sentry
		profileCfg config.ProfileFile
		logger     *slog.Logger
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)

	app := &cli.Command{
		Name:    "modsync",
		Usage:   "Synchronize mods of Nexus Mods and GameBanana into a local library",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			if err := sentryCfg.Configure(); err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdNexus(&profileCfg),
			cmdGameBanana(&profileCfg),
			cmdRename(&profileCfg),
			cmdServe(&profileCfg),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentryCfg.Capture(err)
		return err
	}

	return nil
}
