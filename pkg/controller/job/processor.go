package job

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Name is the job name used in logs
const Name = "notify-image-updates"

// RunProcessor adapts NotifyUseCase to a scheduler job
type RunProcessor struct {
	notifyUC interfaces.NotifyUseCase
}

// NewRunProcessor creates a new RunProcessor
func NewRunProcessor(notifyUC interfaces.NotifyUseCase) *RunProcessor {
	return &RunProcessor{
		notifyUC: notifyUC,
	}
}

// Process executes one run. The returned error is meant to be logged by the
// caller; it never affects later runs.
func (p *RunProcessor) Process(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	result, err := p.notifyUC.Run(ctx)
	if err != nil {
		if result != nil {
			return goerr.Wrap(err, "run failed",
				goerr.V("run_id", result.ID),
				goerr.V("batches_sent", result.BatchesSent),
			)
		}
		return goerr.Wrap(err, "run failed")
	}

	if result.Skipped {
		logger.Info("Run skipped", "run_id", result.ID)
		return nil
	}

	logger.Info("Run completed",
		"run_id", result.ID,
		"outdated", result.Outdated,
		"notified", len(result.Notified),
		"batches_sent", result.BatchesSent,
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	)
	return nil
}
