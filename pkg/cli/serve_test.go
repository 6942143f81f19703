package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/cupnotifier/pkg/cli/config"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func resolveArgs(t *testing.T, args ...string) (*serveConfig, error) {
	t.Helper()
	var cfg serveConfig
	cmd := &cli.Command{
		Name:  "serve",
		Flags: cfg.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return cfg.resolve(c)
		},
	}
	err := cmd.Run(context.Background(), append([]string{"serve"}, args...))
	return &cfg, err
}

func TestServeConfig_Resolve(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("complete config from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		gt.NoError(t, os.WriteFile(path, []byte(
			"webhook_url: https://discord.com/api/webhooks/1/x\ncup_base_url: http://cup:8000\nsink: slack\n",
		), 0600))

		cfg, err := resolveArgs(t, "--config", path)
		gt.NoError(t, err)
		gt.Equal(t, cfg.cup.BaseURL, "http://cup:8000")
		gt.Equal(t, cfg.notifier.Sink, "slack")
		gt.Equal(t, cfg.schedule.Cron, "0 0 0 * * *")
		gt.False(t, cfg.server.Enabled())
	})

	t.Run("webhook url from file named by environment", func(t *testing.T) {
		secret := filepath.Join(t.TempDir(), "webhook")
		gt.NoError(t, os.WriteFile(secret, []byte("https://discord.com/api/webhooks/1/secret\n"), 0600))
		t.Setenv("CUP_NOTIFIER_WEBHOOK_URL_FILE", secret)

		path := filepath.Join(t.TempDir(), "config.yaml")
		gt.NoError(t, os.WriteFile(path, []byte(
			"webhook_url: https://discord.com/api/webhooks/1/from-yaml\ncup_base_url: http://cup:8000\n",
		), 0600))

		cfg, err := resolveArgs(t, "--config", path)
		gt.NoError(t, err)
		gt.Equal(t, cfg.notifier.WebhookURL, "https://discord.com/api/webhooks/1/secret")
	})

	testCases := []struct {
		name string
		args []string
	}{
		{
			name: "missing webhook url",
			args: []string{"--cup-base-url", "http://cup:8000"},
		},
		{
			name: "missing cup base url",
			args: []string{"--webhook-url", "https://discord.com/api/webhooks/1/x"},
		},
		{
			name: "unknown sink",
			args: []string{
				"--webhook-url", "https://discord.com/api/webhooks/1/x",
				"--cup-base-url", "http://cup:8000",
				"--sink", "teams",
			},
		},
		{
			name: "explicit config file does not exist",
			args: []string{"--config", "no-such-file.yaml"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolveArgs(t, tc.args...)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
		})
	}
}

func TestRun_ServeFailsOnInvalidSchedule(t *testing.T) {
	t.Chdir(t.TempDir())

	err := Run(context.Background(), []string{
		"cupnotifier", "serve",
		"--webhook-url", "https://discord.com/api/webhooks/1/x",
		"--cup-base-url", "http://cup:8000",
		"--cron", "not a cron",
	})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagScheduleSyntax))
}

func TestRun_RejectsInvalidLogLevel(t *testing.T) {
	err := Run(context.Background(), []string{"cupnotifier", "--log-level", "verbose", "schema"})
	gt.Error(t, err)
}

func newRunnableConfig() *serveConfig {
	return &serveConfig{
		cup:      config.Cup{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		notifier: config.Notifier{WebhookURL: "https://discord.com/api/webhooks/1/x", Sink: config.SinkDiscord},
		schedule: config.Schedule{Cron: "@yearly", Timezone: "UTC"},
	}
}

func TestServeConfig_Run_Shutdown(t *testing.T) {
	t.Run("interrupt received before start", func(t *testing.T) {
		sigChan := make(chan os.Signal, 1)
		sigChan <- os.Interrupt

		gt.NoError(t, newRunnableConfig().run(context.Background(), sigChan))
	})

	t.Run("interrupt with control plane enabled", func(t *testing.T) {
		cfg := newRunnableConfig()
		cfg.server = config.Server{Addr: "127.0.0.1:0", TriggerToken: "token"}

		sigChan := make(chan os.Signal, 1)
		sigChan <- os.Interrupt

		gt.NoError(t, cfg.run(context.Background(), sigChan))
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		gt.NoError(t, newRunnableConfig().run(ctx, make(chan os.Signal)))
	})

	t.Run("invalid timezone fails before start", func(t *testing.T) {
		cfg := newRunnableConfig()
		cfg.schedule.Timezone = "Mars/Olympus"

		err := cfg.run(context.Background(), make(chan os.Signal))
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
	})
}
