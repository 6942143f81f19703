package interfaces

import (
	"context"

	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
)

// NotifyUseCase runs the fetch, dedup, notify and commit pipeline
type NotifyUseCase interface {
	// Run executes one pipeline run. A run that finds another run in
	// progress returns immediately with Skipped set.
	Run(ctx context.Context) (*model.RunResult, error)

	// Status returns the dedup cache size and the last finished run
	Status(ctx context.Context) *model.Status
}
