package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// DefaultFilePath is read when --config is not given. It may be absent.
const DefaultFilePath = "config.yaml"

// File is the YAML configuration file. Flags and environment variables
// take precedence over values in the file.
type File struct {
	WebhookURL            string `yaml:"webhook_url,omitempty" json:"webhook_url,omitempty" masq:"secret" description:"Webhook URL to which notifications are sent"`
	WebhookURLFile        string `yaml:"webhook_url_file,omitempty" json:"webhook_url_file,omitempty" description:"File containing the webhook URL, used when webhook_url is empty"`
	CupBaseURL            string `yaml:"cup_base_url" json:"cup_base_url" description:"Base URL of the Cup instance"`
	CupInsecureSkipVerify *bool  `yaml:"cup_insecure_skip_verify,omitempty" json:"cup_insecure_skip_verify,omitempty" description:"Skip TLS certificate verification for Cup"`
	Cron                  string `yaml:"cron,omitempty" json:"cron,omitempty" description:"Cron pattern to use, seconds first" default:"0 0 0 * * *"`
	Timezone              string `yaml:"timezone,omitempty" json:"timezone,omitempty" description:"IANA time zone used to evaluate the cron pattern" default:"Local"`
	RunOnStart            *bool  `yaml:"run_on_start,omitempty" json:"run_on_start,omitempty" description:"Run once immediately after start"`
	Sink                  string `yaml:"sink,omitempty" json:"sink,omitempty" description:"Notification sink: discord or slack" default:"discord"`
	HTTPTimeout           string `yaml:"http_timeout,omitempty" json:"http_timeout,omitempty" description:"Timeout of each outbound HTTP request" default:"30s"`
	Addr                  string `yaml:"addr,omitempty" json:"addr,omitempty" description:"Listen address of the control plane, empty to disable"`
	TriggerToken          string `yaml:"trigger_token,omitempty" json:"trigger_token,omitempty" masq:"secret" description:"Bearer token enabling POST /api/v1/run"`
	TriggerTokenFile      string `yaml:"trigger_token_file,omitempty" json:"trigger_token_file,omitempty" description:"File containing the trigger token, used when trigger_token is empty"`
}

// FileFlag holds the --config flag
type FileFlag struct {
	Path string
}

// Flags returns CLI flags for the configuration file
func (c *FileFlag) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			Value:       DefaultFilePath,
			Destination: &c.Path,
			Sources:     cli.EnvVars("CUP_NOTIFIER_CONFIG"),
		},
	}
}

// Load reads the configuration file. A missing file is not an error unless
// the path was given explicitly.
func (c *FileFlag) Load(explicit bool) (*File, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return &File{}, nil
		}
		return nil, goerr.Wrap(err, "failed to read config file",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfig),
		)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file",
			goerr.V("path", c.Path),
			goerr.T(types.ErrTagConfig),
		)
	}

	if err := file.readSecretFiles(); err != nil {
		return nil, err
	}

	return &file, nil
}

// readSecretFiles fills secrets given as `<key>_file` paths. An inline value
// wins over its file.
func (x *File) readSecretFiles() error {
	secrets := []struct {
		key  string
		path string
		dst  *string
	}{
		{key: "webhook_url_file", path: x.WebhookURLFile, dst: &x.WebhookURL},
		{key: "trigger_token_file", path: x.TriggerTokenFile, dst: &x.TriggerToken},
	}

	for _, s := range secrets {
		if s.path == "" || *s.dst != "" {
			continue
		}
		v, err := readSecretFile(s.key, s.path)
		if err != nil {
			return err
		}
		*s.dst = v
	}
	return nil
}

// mergeString sets dst from the file when the flag was not given
func mergeString(cmd *cli.Command, name string, dst *string, fromFile string) {
	if fromFile != "" && !cmd.IsSet(name) {
		*dst = fromFile
	}
}

func mergeBool(cmd *cli.Command, name string, dst *bool, fromFile *bool) {
	if fromFile != nil && !cmd.IsSet(name) {
		*dst = *fromFile
	}
}
