package config

import (
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/nexus"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/urfave/cli/v3"
)

// Nexus holds Nexus Mods API configuration
type Nexus struct {
	APIKey       string
	BaseURL      string
	FileCategory string
}

// Flags returns CLI flags for Nexus Mods configuration
func (c *Nexus) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "nexus-api-key",
			Usage:       "Personal API key of Nexus Mods",
			Destination: &c.APIKey,
			Sources:     cli.EnvVars("MODSYNC_NEXUS_API_KEY", "API_KEY"),
		},
		&cli.StringFlag{
			Name:        "nexus-base-url",
			Usage:       "Endpoint of the Nexus Mods API",
			Value:       nexus.DefaultBaseURL,
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("MODSYNC_NEXUS_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "nexus-file-category",
			Usage:       "File category to download",
			Value:       nexus.DefaultFileCategory,
			Destination: &c.FileCategory,
			Sources:     cli.EnvVars("MODSYNC_NEXUS_FILE_CATEGORY"),
		},
	}
}

// NewClient creates a Nexus Mods client. A missing API key is a
// configuration error.
func (c *Nexus) NewClient(t *transport.Client) (*nexus.Client, error) {
	return nexus.NewClient(types.Credential(c.APIKey),
		nexus.WithBaseURL(c.BaseURL),
		nexus.WithFileCategory(c.FileCategory),
		nexus.WithTransport(t),
	)
}
