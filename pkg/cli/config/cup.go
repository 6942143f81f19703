package config

import (
	"net/url"
	"time"

	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Cup holds configuration of the Cup update source
type Cup struct {
	BaseURL            string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Flags returns CLI flags for Cup configuration
func (c *Cup) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cup-base-url",
			Usage:       "Base URL of Cup's instance",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("CUP_NOTIFIER_CUP_BASE_URL"),
		},
		&cli.BoolFlag{
			Name:        "cup-insecure-skip-verify",
			Usage:       "Skip TLS certificate verification for Cup",
			Destination: &c.InsecureSkipVerify,
			Sources:     cli.EnvVars("CUP_NOTIFIER_CUP_INSECURE_SKIP_VERIFY"),
		},
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "Timeout of each outbound HTTP request",
			Value:       30 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("CUP_NOTIFIER_HTTP_TIMEOUT"),
		},
	}
}

// Merge fills values not given by flags from the config file
func (c *Cup) Merge(cmd *cli.Command, file *File) error {
	mergeString(cmd, "cup-base-url", &c.BaseURL, file.CupBaseURL)
	mergeBool(cmd, "cup-insecure-skip-verify", &c.InsecureSkipVerify, file.CupInsecureSkipVerify)

	if file.HTTPTimeout != "" && !cmd.IsSet("http-timeout") {
		d, err := time.ParseDuration(file.HTTPTimeout)
		if err != nil {
			return goerr.Wrap(err, "invalid http_timeout",
				goerr.V("http_timeout", file.HTTPTimeout),
				goerr.T(types.ErrTagConfig),
			)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks that the configuration is complete
func (c *Cup) Validate() error {
	if c.BaseURL == "" {
		return goerr.New("cup_base_url is required", goerr.T(types.ErrTagConfig))
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return goerr.New("cup_base_url must be an absolute http(s) URL",
			goerr.V("cup_base_url", c.BaseURL),
			goerr.T(types.ErrTagConfig),
		)
	}
	if c.Timeout <= 0 {
		return goerr.New("http_timeout must be positive",
			goerr.V("http_timeout", c.Timeout),
			goerr.T(types.ErrTagConfig),
		)
	}
	return nil
}
