package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// DefaultBaseDir is the root of the local mod library
const DefaultBaseDir = "~/Games/Mods-Lists"

// Storage holds the location of the local mod library
type Storage struct {
	BaseDir string
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-dir",
			Usage:       "Root directory of the mod library (default: " + DefaultBaseDir + ")",
			Destination: &c.BaseDir,
			Sources:     cli.EnvVars("MODSYNC_BASE_DIR"),
		},
	}
}

// Resolve returns the base directory from the flag, the profile or the
// default, in that order, with a leading "~" expanded
func (c *Storage) Resolve(p *Profile) (string, error) {
	dir := c.BaseDir
	if dir == "" && p != nil {
		dir = p.BaseDir
	}
	if dir == "" {
		dir = DefaultBaseDir
	}
	return ExpandHome(dir)
}

// ExpandHome replaces a leading "~" with the home directory of the user
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "home directory is not available",
			goerr.V("path", path),
			goerr.T(types.ErrTagConfiguration))
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
