package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/modsync/pkg/cli/config"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/infra/linkstore"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/m-mizutani/modsync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdGameBanana(profileCfg *config.ProfileFile) *cli.Command {
	var (
		gbCfg       config.GameBanana
		storageCfg  config.Storage
		pipelineCfg config.Pipeline
		slackCfg    config.Slack
	)

	return &cli.Command{
		Name:    "gamebanana",
		Aliases: []string{"gb"},
		Usage:   "Download subscribed mods of a GameBanana member",
		Flags:   joinFlags(gbCfg.Flags(), storageCfg.Flags(), pipelineCfg.Flags(), slackCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			profile, err := profileCfg.Load()
			if err != nil {
				return err
			}
			baseDir, err := storageCfg.Resolve(profile)
			if err != nil {
				return err
			}
			gbCfg.Resolve(profile)

			opts, err := syncOptions(&pipelineCfg, &slackCfg)
			if err != nil {
				return err
			}

			t := transport.New()
			opts = append(opts, usecase.WithStreamer(t))

			uc := usecase.NewGameBananaSync(gbCfg.NewClient(t), linkstore.New(), baseDir, opts...)
			summary, err := uc.Run(ctx, gbCfg.UserID, model.GameDomain(gbCfg.Domain))
			printSummary(os.Stdout, summary)
			return err
		},
	}
}
