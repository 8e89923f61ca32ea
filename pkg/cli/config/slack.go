package config

import (
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds run summary notification configuration
type Slack struct {
	WebhookURL string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Incoming webhook URL receiving run summaries",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("MODSYNC_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns the configured notifier, or nil when no webhook is set
func (c *Slack) Notifier() (interfaces.Notifier, error) {
	if c.WebhookURL == "" {
		return nil, nil
	}
	notifier, err := slack.New(types.Credential(c.WebhookURL))
	if err != nil {
		return nil, err
	}
	return notifier, nil
}
