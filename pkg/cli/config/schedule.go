package config

import (
	"time"

	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/cupnotifier/pkg/infra/scheduler"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Schedule holds configuration of the recurring job
type Schedule struct {
	Cron       string
	Timezone   string
	RunOnStart bool
}

// Flags returns CLI flags for schedule configuration
func (c *Schedule) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cron",
			Usage:       "Cron pattern to use, seconds first",
			Value:       scheduler.DefaultSpec,
			Destination: &c.Cron,
			Sources:     cli.EnvVars("CUP_NOTIFIER_CRON"),
		},
		&cli.StringFlag{
			Name:        "timezone",
			Usage:       "IANA time zone used to evaluate the cron pattern",
			Value:       "Local",
			Destination: &c.Timezone,
			Sources:     cli.EnvVars("CUP_NOTIFIER_TIMEZONE"),
		},
		&cli.BoolFlag{
			Name:        "run-on-start",
			Usage:       "Run once immediately after start",
			Destination: &c.RunOnStart,
			Sources:     cli.EnvVars("CUP_NOTIFIER_RUN_ON_START"),
		},
	}
}

// Merge fills values not given by flags from the config file
func (c *Schedule) Merge(cmd *cli.Command, file *File) {
	mergeString(cmd, "cron", &c.Cron, file.Cron)
	mergeString(cmd, "timezone", &c.Timezone, file.Timezone)
	mergeBool(cmd, "run-on-start", &c.RunOnStart, file.RunOnStart)
}

// Location resolves the configured time zone
func (c *Schedule) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid timezone",
			goerr.V("timezone", c.Timezone),
			goerr.T(types.ErrTagConfig),
		)
	}
	return loc, nil
}
