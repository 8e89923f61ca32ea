package config

import (
	"github.com/m-mizutani/modsync/pkg/infra/gamebanana"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/urfave/cli/v3"
)

// DefaultGameBananaDomain is the local domain directory of GameBanana mods
const DefaultGameBananaDomain = "gamebanana"

// GameBanana holds GameBanana configuration
type GameBanana struct {
	UserID  string
	BaseURL string
	Domain  string
}

// Flags returns CLI flags for GameBanana configuration
func (c *GameBanana) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gamebanana-user-id",
			Usage:       "Member ID whose subscriptions are downloaded",
			Destination: &c.UserID,
			Sources:     cli.EnvVars("MODSYNC_GAMEBANANA_USER_ID", "GB_USER_ID"),
		},
		&cli.StringFlag{
			Name:        "gamebanana-base-url",
			Usage:       "Endpoint of the GameBanana API",
			Value:       gamebanana.DefaultBaseURL,
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("MODSYNC_GAMEBANANA_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "gamebanana-domain",
			Usage:       "Local domain directory for GameBanana mods",
			Destination: &c.Domain,
			Sources:     cli.EnvVars("MODSYNC_GAMEBANANA_DOMAIN"),
		},
	}
}

// Resolve fills unset values from the profile
func (c *GameBanana) Resolve(p *Profile) {
	if c.UserID == "" {
		c.UserID = p.GameBanana.UserID
	}
	if c.Domain == "" {
		c.Domain = p.GameBanana.Domain
	}
	if c.Domain == "" {
		c.Domain = DefaultGameBananaDomain
	}
}

// NewClient creates a GameBanana client
func (c *GameBanana) NewClient(t *transport.Client) *gamebanana.Client {
	return gamebanana.NewClient(
		gamebanana.WithBaseURL(c.BaseURL),
		gamebanana.WithTransport(t),
	)
}
