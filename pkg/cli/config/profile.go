package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Profile is the content of the optional TOML configuration file. Flags and
// arguments take precedence over every value of the profile.
//
//	base_dir = "~/Games/Mods-Lists"
//	domains = ["skyrimspecialedition", "fallout4"]
//
//	[gamebanana]
//	user_id = "1234567"
//	domain = "gamebanana"
type Profile struct {
	BaseDir    string   `toml:"base_dir"`
	Domains    []string `toml:"domains"`
	GameBanana struct {
		UserID string `toml:"user_id"`
		Domain string `toml:"domain"`
	} `toml:"gamebanana"`
}

// GameDomains converts the configured domains
func (p *Profile) GameDomains() []model.GameDomain {
	domains := make([]model.GameDomain, 0, len(p.Domains))
	for _, d := range p.Domains {
		if d != "" {
			domains = append(domains, model.GameDomain(d))
		}
	}
	return domains
}

// ProfileFile holds the location of the profile
type ProfileFile struct {
	Path string
}

// Flags returns CLI flags for the profile
func (c *ProfileFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML profile",
			Destination: &c.Path,
			Sources:     cli.EnvVars("MODSYNC_CONFIG"),
		},
	}
}

// Load reads the profile. No path yields an empty profile; a path that
// cannot be read or decoded is a configuration error.
func (c *ProfileFile) Load() (*Profile, error) {
	var p Profile
	if c.Path == "" {
		return &p, nil
	}

	raw, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(err, "profile not found",
				goerr.V("path", c.Path),
				goerr.T(types.ErrTagConfiguration))
		}
		return nil, goerr.Wrap(err, "failed to read profile", goerr.V("path", c.Path))
	}

	if err := toml.Unmarshal(raw, &p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode profile",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfiguration))
	}

	return &p, nil
}
