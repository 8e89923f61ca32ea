package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/modsync/pkg/cli/config"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/m-mizutani/modsync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdRename(profileCfg *config.ProfileFile) *cli.Command {
	var (
		nexusCfg    config.Nexus
		storageCfg  config.Storage
		pipelineCfg config.Pipeline
		slackCfg    config.Slack
	)

	return &cli.Command{
		Name:      "rename",
		Aliases:   []string{"r"},
		Usage:     "Rename mod folders named by ID after their Nexus Mods display names",
		ArgsUsage: "[domain...]",
		Flags:     joinFlags(nexusCfg.Flags(), storageCfg.Flags(), pipelineCfg.Flags(), slackCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			profile, err := profileCfg.Load()
			if err != nil {
				return err
			}
			baseDir, err := storageCfg.Resolve(profile)
			if err != nil {
				return err
			}

			// no domain at all means every directory below the base
			domains := argDomains(c.Args().Slice())
			if len(domains) == 0 {
				domains = profile.GameDomains()
			}

			opts, err := syncOptions(&pipelineCfg, &slackCfg)
			if err != nil {
				return err
			}

			client, err := nexusCfg.NewClient(transport.New())
			if err != nil {
				return err
			}

			summary, err := usecase.NewRename(client, baseDir, opts...).Run(ctx, domains)
			printSummary(os.Stdout, summary)
			return err
		},
	}
}
