package config

import (
	"time"

	"github.com/m-mizutani/modsync/pkg/usecase"
	"github.com/m-mizutani/modsync/pkg/utils/retry"
	"github.com/m-mizutani/modsync/pkg/utils/throttle"
	"github.com/urfave/cli/v3"
)

// Pipeline holds pacing and retry settings of the sync workflows
type Pipeline struct {
	CatalogInterval    time.Duration
	ResolveAttempts    int
	ResolveRetryDelay  time.Duration
	DownloadInterval   time.Duration
	DownloadAttempts   int
	DownloadRetryDelay time.Duration
	Workers            int
}

// Flags returns CLI flags for pipeline configuration
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "catalog-interval",
			Usage:       "Minimum interval between two catalog requests",
			Value:       usecase.DefaultCatalogInterval,
			Destination: &c.CatalogInterval,
			Sources:     cli.EnvVars("MODSYNC_CATALOG_INTERVAL"),
		},
		&cli.IntFlag{
			Name:        "resolve-attempts",
			Usage:       "Attempts of a catalog request failing with a network error",
			Value:       1,
			Destination: &c.ResolveAttempts,
			Sources:     cli.EnvVars("MODSYNC_RESOLVE_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "resolve-retry-delay",
			Usage:       "Delay between two attempts of a catalog request",
			Value:       usecase.DefaultDownloadRetryDelay,
			Destination: &c.ResolveRetryDelay,
			Sources:     cli.EnvVars("MODSYNC_RESOLVE_RETRY_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "download-interval",
			Usage:       "Minimum interval between the start of two downloads",
			Value:       usecase.DefaultDownloadInterval,
			Destination: &c.DownloadInterval,
			Sources:     cli.EnvVars("MODSYNC_DOWNLOAD_INTERVAL"),
		},
		&cli.IntFlag{
			Name:        "download-attempts",
			Usage:       "Attempts per file before it is reported as failed",
			Value:       usecase.DefaultDownloadAttempts,
			Destination: &c.DownloadAttempts,
			Sources:     cli.EnvVars("MODSYNC_DOWNLOAD_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "download-retry-delay",
			Usage:       "Delay between two attempts of a download",
			Value:       usecase.DefaultDownloadRetryDelay,
			Destination: &c.DownloadRetryDelay,
			Sources:     cli.EnvVars("MODSYNC_DOWNLOAD_RETRY_DELAY"),
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of parallel downloads sharing the download interval",
			Value:       1,
			Destination: &c.Workers,
			Sources:     cli.EnvVars("MODSYNC_WORKERS"),
		},
	}
}

// SyncOptions converts the settings into workflow options. Every workflow
// built from the same options shares one catalog limiter.
func (c *Pipeline) SyncOptions() []usecase.SyncOption {
	return []usecase.SyncOption{
		usecase.WithCatalogLimiter(throttle.New(c.CatalogInterval)),
		usecase.WithResolverOptions(usecase.WithResolveRetry(retry.Policy{
			MaxAttempts: c.ResolveAttempts,
			Delay:       c.ResolveRetryDelay,
		})),
		usecase.WithDownloaderOptions(
			usecase.WithDownloadLimiter(throttle.New(c.DownloadInterval)),
			usecase.WithDownloadRetry(retry.Policy{
				MaxAttempts: c.DownloadAttempts,
				Delay:       c.DownloadRetryDelay,
			}),
			usecase.WithWorkers(c.Workers),
		),
	}
}
