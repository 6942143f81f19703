package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/cupnotifier/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdSchema() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print JSON Schema of the config file",
		Action: func(ctx context.Context, c *cli.Command) error {
			return config.WriteSchema(os.Stdout)
		},
	}
}
