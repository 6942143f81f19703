package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/cli/config"
	controller "github.com/m-mizutani/cupnotifier/pkg/controller/http"
	"github.com/m-mizutani/cupnotifier/pkg/controller/job"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/infra/cache"
	"github.com/m-mizutani/cupnotifier/pkg/infra/cup"
	"github.com/m-mizutani/cupnotifier/pkg/infra/discord"
	"github.com/m-mizutani/cupnotifier/pkg/infra/scheduler"
	"github.com/m-mizutani/cupnotifier/pkg/infra/slack"
	"github.com/m-mizutani/cupnotifier/pkg/usecase"
	"github.com/m-mizutani/cupnotifier/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

type serveConfig struct {
	file     config.FileFlag
	cup      config.Cup
	notifier config.Notifier
	schedule config.Schedule
	server   config.Server
}

func (x *serveConfig) flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.file.Flags()...)
	flags = append(flags, x.cup.Flags()...)
	flags = append(flags, x.notifier.Flags()...)
	flags = append(flags, x.schedule.Flags()...)
	flags = append(flags, x.server.Flags()...)
	return flags
}

// resolve merges the config file under the flags and validates the result
func (x *serveConfig) resolve(c *cli.Command) error {
	file, err := x.file.Load(c.IsSet("config"))
	if err != nil {
		return err
	}

	if err := x.cup.Merge(c, file); err != nil {
		return err
	}
	x.notifier.Merge(c, file)
	x.schedule.Merge(c, file)
	x.server.Merge(c, file)

	if err := x.notifier.Validate(); err != nil {
		return err
	}
	if err := x.cup.Validate(); err != nil {
		return err
	}
	return nil
}

func cmdServe() *cli.Command {
	var cfg serveConfig

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the notifier on the configured schedule",
		Flags:   cfg.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := cfg.resolve(c); err != nil {
				return goerr.Wrap(err, "failed to load config")
			}

			logger.Info("Resolved config",
				slog.String("config_file", cfg.file.Path),
				slog.Any("cup", cfg.cup),
				slog.Any("notifier", cfg.notifier),
				slog.Any("schedule", cfg.schedule),
				slog.Any("server", cfg.server),
			)

			// must be registered before the scheduler starts
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt)
			defer signal.Stop(sigChan)

			return cfg.run(ctx, sigChan)
		},
	}
}

// run starts the scheduler and the optional control plane, then blocks until
// ctx is done or a signal arrives on sigChan.
func (x *serveConfig) run(ctx context.Context, sigChan <-chan os.Signal) error {
	logger := ctxlog.From(ctx)

	loc, err := x.schedule.Location()
	if err != nil {
		return err
	}

	sched, err := scheduler.New(x.schedule.Cron, scheduler.WithLocation(loc))
	if err != nil {
		return goerr.Wrap(err, "failed to create scheduler")
	}

	source, err := cup.NewClient(x.cup.BaseURL,
		cup.WithTimeout(x.cup.Timeout),
		cup.WithInsecureSkipVerify(x.cup.InsecureSkipVerify),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create Cup client")
	}

	httpClient := &http.Client{Timeout: x.cup.Timeout}
	var sink interfaces.NotificationSink
	switch x.notifier.Sink {
	case config.SinkSlack:
		sink = slack.NewClient(x.notifier.WebhookURL, slack.WithHTTPClient(httpClient))
	default:
		sink = discord.NewClient(x.notifier.WebhookURL, discord.WithHTTPClient(httpClient))
	}

	notifyUC := usecase.NewNotify(source, sink, cache.NewMemory())
	processor := job.NewRunProcessor(notifyUC)

	var server *controller.Server
	if x.server.Enabled() {
		server, err = controller.NewServer(ctx, notifyUC, processor.Process,
			controller.WithAddr(x.server.Addr),
			controller.WithTriggerToken(x.server.TriggerToken),
		)
		if err != nil {
			return goerr.Wrap(err, "failed to create HTTP server")
		}
	}

	if err := sched.Register(job.Name, processor.Process); err != nil {
		return goerr.Wrap(err, "failed to register job")
	}
	if err := sched.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start scheduler")
	}

	if x.schedule.RunOnStart {
		logger.Info("Running once on start")
		async.Dispatch(ctx, processor.Process)
	}

	if server != nil {
		go func() {
			logger.Info("HTTP server starting", slog.String("addr", x.server.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", slog.Any("error", err))
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	case sig := <-sigChan:
		logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shutdown HTTP server gracefully", slog.Any("error", err))
		}
	}

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("Exiting with runs in progress", slog.Any("error", err))
	}

	logger.Info("Exiting...")
	return nil
}
