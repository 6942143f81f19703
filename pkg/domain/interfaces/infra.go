package interfaces

import (
	"context"

	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
)

// UpdateSource provides the current update status of monitored images
type UpdateSource interface {
	// Fetch asks the source to refresh its state and returns the refreshed snapshot
	Fetch(ctx context.Context) (*model.Snapshot, error)
}

// NotificationSink delivers rendered notifications to an external channel
type NotificationSink interface {
	// Send delivers one batch. The batch must not exceed MaxBatchSize.
	Send(ctx context.Context, batch model.Batch) error

	// MaxBatchSize is the largest batch accepted in a single Send call
	MaxBatchSize() int
}

// DedupCache holds identity keys that have already been announced
type DedupCache interface {
	Contains(key model.IdentityKey) bool
	InsertAll(keys []model.IdentityKey)
	Len() int
}

// Scheduler runs registered jobs on a recurring schedule
type Scheduler interface {
	Register(name string, job func(ctx context.Context) error) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
