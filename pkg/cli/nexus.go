package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/modsync/pkg/cli/config"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/infra/linkstore"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/m-mizutani/modsync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdNexus(profileCfg *config.ProfileFile) *cli.Command {
	var (
		nexusCfg    config.Nexus
		storageCfg  config.Storage
		pipelineCfg config.Pipeline
		slackCfg    config.Slack
		linksOnly   bool
		fromLinks   bool
	)

	flags := joinFlags(nexusCfg.Flags(), storageCfg.Flags(), pipelineCfg.Flags(), slackCfg.Flags())
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "links-only",
			Usage:       "Resolve and save download links without downloading",
			Destination: &linksOnly,
		},
		&cli.BoolFlag{
			Name:        "from-links",
			Usage:       "Download the link file saved by a previous run",
			Destination: &fromLinks,
		},
	)

	return &cli.Command{
		Name:      "nexus",
		Aliases:   []string{"n"},
		Usage:     "Download tracked mods of Nexus Mods for each game domain",
		ArgsUsage: "[domain...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			profile, err := profileCfg.Load()
			if err != nil {
				return err
			}
			baseDir, err := storageCfg.Resolve(profile)
			if err != nil {
				return err
			}

			domains := argDomains(c.Args().Slice())
			if len(domains) == 0 {
				domains = profile.GameDomains()
			}

			opts, err := syncOptions(&pipelineCfg, &slackCfg)
			if err != nil {
				return err
			}
			if linksOnly {
				opts = append(opts, usecase.WithLinksOnly())
			}
			if fromLinks {
				opts = append(opts, usecase.WithFromLinks())
			}

			t := transport.New()
			opts = append(opts, usecase.WithStreamer(t))

			// the link file is all a download from links needs
			var client interfaces.NexusClient
			if !fromLinks || nexusCfg.APIKey != "" {
				nc, err := nexusCfg.NewClient(t)
				if err != nil {
					return err
				}
				client = nc
			}

			summary, err := usecase.NewNexusSync(client, linkstore.New(), baseDir, opts...).Run(ctx, domains)
			printSummary(os.Stdout, summary)
			return err
		},
	}
}

func argDomains(args []string) []model.GameDomain {
	var domains []model.GameDomain
	for _, arg := range args {
		if arg != "" {
			domains = append(domains, model.GameDomain(arg))
		}
	}
	return domains
}

func joinFlags(sets ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, set := range sets {
		flags = append(flags, set...)
	}
	return flags
}

func syncOptions(pipelineCfg *config.Pipeline, slackCfg *config.Slack) ([]usecase.SyncOption, error) {
	opts := pipelineCfg.SyncOptions()

	notifier, err := slackCfg.Notifier()
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}
	return opts, nil
}
