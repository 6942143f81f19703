package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/cupnotifier/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
)

// DefaultSpec fires every day at midnight. The first field is seconds.
const DefaultSpec = "0 0 0 * * *"

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec validates a schedule expression. Both the six-field form with
// seconds and the classic five-field form are accepted, as well as
// descriptors such as "@daily" and "@every 1h".
func ParseSpec(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid cron pattern",
			goerr.V("spec", spec),
			goerr.T(types.ErrTagScheduleSyntax),
		)
	}
	return schedule, nil
}

type config struct {
	location *time.Location
}

// Option is a functional option for the cron scheduler
type Option func(*config)

// WithLocation sets the time zone used to evaluate the schedule
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		c.location = loc
	}
}

type cronScheduler struct {
	mu       sync.Mutex
	spec     string
	schedule cron.Schedule
	location *time.Location

	c       *cron.Cron
	jobs    []registeredJob
	started bool
}

type registeredJob struct {
	name string
	run  func(ctx context.Context) error
}

// New creates a scheduler that runs every registered job on spec.
// A malformed spec is rejected here, before anything is started.
func New(spec string, opts ...Option) (interfaces.Scheduler, error) {
	schedule, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}

	cfg := &config{location: time.Local}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cronScheduler{
		spec:     spec,
		schedule: schedule,
		location: cfg.location,
	}, nil
}

// Register adds a job. It must be called before Start.
func (s *cronScheduler) Register(name string, job func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return goerr.New("scheduler already started", goerr.V("job", name))
	}
	s.jobs = append(s.jobs, registeredJob{name: name, run: job})
	return nil
}

// Start begins firing jobs. Jobs run with a context derived from ctx that
// keeps its values but is never cancelled, so in-flight runs are not
// interrupted by shutdown.
func (s *cronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return goerr.New("scheduler already started")
	}

	logger := ctxlog.From(ctx)
	jobCtx := context.WithoutCancel(ctx)

	s.c = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.location),
		cron.WithLogger(newCronLogger(logger)),
	)
	for _, job := range s.jobs {
		s.c.Schedule(s.schedule, cron.FuncJob(func() {
			runJob(jobCtx, job)
		}))
	}
	s.c.Start()
	s.started = true

	logger.Info("Scheduling recurring job by cron pattern",
		"spec", s.spec,
		"tz", s.location.String(),
		"jobs", len(s.jobs),
		"next", s.schedule.Next(time.Now().In(s.location)),
	)
	return nil
}

// Stop prevents new occurrences and waits for running jobs until ctx is done
func (s *cronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.started = false
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	logger := ctxlog.From(ctx)
	select {
	case <-c.Stop().Done():
		logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Scheduler stopped with jobs still running")
		return goerr.Wrap(ctx.Err(), "jobs did not finish before shutdown")
	}
}

func runJob(ctx context.Context, job registeredJob) {
	logger := ctxlog.From(ctx).With("job", job.name)
	ctx = ctxlog.With(ctx, logger)

	start := time.Now()
	logger.Info("Started job")

	if err := async.Recover(ctx, job.run); err != nil {
		logger.Error("Job failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	logger.Info("Finished job", "duration_ms", time.Since(start).Milliseconds())
}

// cronLogger forwards robfig/cron's internal logs to slog
type cronLogger struct {
	logger *slog.Logger
}

func newCronLogger(logger *slog.Logger) cron.Logger {
	return &cronLogger{logger: logger.With("component", "cron")}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
