package config

import (
	"net/url"

	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	SinkDiscord = "discord"
	SinkSlack   = "slack"
)

// Notifier holds configuration of the notification sink
type Notifier struct {
	WebhookURL string `masq:"secret"`
	Sink       string
}

// Flags returns CLI flags for notifier configuration
func (c *Notifier) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "webhook-url",
			Usage:       "Webhook URL to which notifications are sent",
			Destination: &c.WebhookURL,
			Sources:     secretSources("CUP_NOTIFIER_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "sink",
			Usage:       "Notification sink (discord, slack)",
			Value:       SinkDiscord,
			Destination: &c.Sink,
			Sources:     cli.EnvVars("CUP_NOTIFIER_SINK"),
		},
	}
}

// Merge fills values not given by flags from the config file
func (c *Notifier) Merge(cmd *cli.Command, file *File) {
	mergeString(cmd, "webhook-url", &c.WebhookURL, file.WebhookURL)
	mergeString(cmd, "sink", &c.Sink, file.Sink)
}

// Validate checks that the configuration is complete
func (c *Notifier) Validate() error {
	if c.WebhookURL == "" {
		return goerr.New("webhook_url is required", goerr.T(types.ErrTagConfig))
	}
	u, err := url.Parse(c.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		// the URL itself is a secret, so it is not attached
		return goerr.New("webhook_url must be an absolute http(s) URL", goerr.T(types.ErrTagConfig))
	}

	switch c.Sink {
	case SinkDiscord, SinkSlack:
		return nil
	default:
		return goerr.New("unknown sink",
			goerr.V("sink", c.Sink),
			goerr.T(types.ErrTagConfig),
		)
	}
}
