package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/cli/config"
	controller "github.com/m-mizutani/modsync/pkg/controller/http"
	"github.com/m-mizutani/modsync/pkg/infra/linkstore"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/m-mizutani/modsync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe(profileCfg *config.ProfileFile) *cli.Command {
	var (
		serverCfg   config.Server
		nexusCfg    config.Nexus
		storageCfg  config.Storage
		pipelineCfg config.Pipeline
		slackCfg    config.Slack
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server triggering sync jobs",
		Flags:   joinFlags(serverCfg.Flags(), nexusCfg.Flags(), storageCfg.Flags(), pipelineCfg.Flags(), slackCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			profile, err := profileCfg.Load()
			if err != nil {
				return err
			}
			baseDir, err := storageCfg.Resolve(profile)
			if err != nil {
				return err
			}

			t := transport.New()
			client, err := nexusCfg.NewClient(t)
			if err != nil {
				return err
			}

			// both workflows share one catalog limiter
			opts, err := syncOptions(&pipelineCfg, &slackCfg)
			if err != nil {
				return err
			}
			opts = append(opts, usecase.WithStreamer(t))

			server, err := controller.NewServer(
				ctx,
				usecase.NewNexusSync(client, linkstore.New(), baseDir, opts...),
				usecase.NewRename(client, baseDir, opts...),
				controller.WithAddr(serverCfg.Addr),
				controller.WithToken(serverCfg.Token),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting",
					slog.String("addr", serverCfg.Addr),
					slog.String("base_dir", baseDir),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("Shutting down...")
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", serverCfg.Addr))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
