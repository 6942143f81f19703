package config

import "github.com/urfave/cli/v3"

// Server holds configuration of the control plane HTTP server
type Server struct {
	Addr         string
	TriggerToken string `masq:"secret"`
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Control plane address (empty disables the server)",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("CUP_NOTIFIER_ADDR"),
		},
		&cli.StringFlag{
			Name:        "trigger-token",
			Usage:       "Bearer token enabling POST /api/v1/run",
			Destination: &c.TriggerToken,
			Sources:     secretSources("CUP_NOTIFIER_TRIGGER_TOKEN"),
		},
	}
}

// Merge fills values not given by flags from the config file
func (c *Server) Merge(cmd *cli.Command, file *File) {
	mergeString(cmd, "addr", &c.Addr, file.Addr)
	mergeString(cmd, "trigger-token", &c.TriggerToken, file.TriggerToken)
}

// Enabled reports whether the server should be started
func (c *Server) Enabled() bool {
	return c.Addr != ""
}
