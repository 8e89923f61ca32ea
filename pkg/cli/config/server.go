package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr  string
	Token string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("MODSYNC_ADDR"),
		},
		&cli.StringFlag{
			Name:        "server-token",
			Usage:       "Bearer token required by job endpoints",
			Destination: &c.Token,
			Sources:     cli.EnvVars("MODSYNC_SERVER_TOKEN"),
		},
	}
}
