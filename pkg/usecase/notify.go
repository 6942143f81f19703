package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// NotificationColor is the embed color of every notification (#237FEB)
	NotificationColor = 2326507

	iconURLFormat = "https://cdn.jsdelivr.net/gh/homarr-labs/dashboard-icons/png/%s.png"
)

type notifyUseCase struct {
	source interfaces.UpdateSource
	sink   interfaces.NotificationSink
	cache  interfaces.DedupCache
	now    func() time.Time

	// running is held for a whole run, so runs never overlap
	running sync.Mutex

	statusMu sync.RWMutex
	lastRun  *model.RunResult
}

// NotifyOption is a functional option for NotifyUseCase
type NotifyOption func(*notifyUseCase)

// WithClock replaces time.Now
func WithClock(now func() time.Time) NotifyOption {
	return func(uc *notifyUseCase) {
		uc.now = now
	}
}

// NewNotify creates a new instance of NotifyUseCase
func NewNotify(
	source interfaces.UpdateSource,
	sink interfaces.NotificationSink,
	cache interfaces.DedupCache,
	opts ...NotifyOption,
) interfaces.NotifyUseCase {
	uc := &notifyUseCase{
		source: source,
		sink:   sink,
		cache:  cache,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run fetches images, notifies updates that were not announced yet and
// records them in the dedup cache only when every batch was delivered.
func (uc *notifyUseCase) Run(ctx context.Context) (*model.RunResult, error) {
	result := &model.RunResult{
		ID:        uuid.NewString(),
		StartedAt: uc.now(),
	}
	logger := ctxlog.From(ctx).With("run_id", result.ID)
	ctx = ctxlog.With(ctx, logger)

	if !uc.running.TryLock() {
		logger.Warn("Previous run is still in progress, skipping this one")
		result.Skipped = true
		result.FinishedAt = uc.now()
		return result, nil
	}
	defer uc.running.Unlock()

	err := uc.run(ctx, result)
	result.FinishedAt = uc.now()
	if err != nil {
		result.Error = err.Error()
	}

	uc.statusMu.Lock()
	uc.lastRun = result
	uc.statusMu.Unlock()

	return result, err
}

type pendingUpdate struct {
	image *model.Image
	key   model.IdentityKey
}

func (uc *notifyUseCase) run(ctx context.Context, result *model.RunResult) error {
	logger := ctxlog.From(ctx)

	snapshot, err := uc.source.Fetch(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch images data")
	}

	logger.Info("Fetched images data",
		"images", len(snapshot.Images),
		"last_updated", snapshot.LastUpdated,
		"monitored", snapshot.Metrics.MonitoredImages,
		"updates_available", snapshot.Metrics.UpdatesAvailable,
	)

	candidates := FilterCandidates(snapshot.Images)
	result.Outdated = len(candidates)
	logger.Info("Found outdated images", "count", len(candidates))

	pending, err := uc.pending(candidates)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		logger.Info("No images updates to notify")
		return nil
	}

	keys := make([]model.IdentityKey, len(pending))
	entries := make([]*model.Notification, len(pending))
	for i, p := range pending {
		entry, err := RenderNotification(p.image)
		if err != nil {
			return err
		}
		keys[i] = p.key
		entries[i] = entry
	}

	logger.Info("Images to send notifications for", "keys", keys)

	batches := SplitBatches(entries, uc.sink.MaxBatchSize())
	for i, batch := range batches {
		if err := uc.sink.Send(ctx, model.Batch(batch)); err != nil {
			return goerr.Wrap(err, "failed to send notifications",
				goerr.V("batch", i+1),
				goerr.V("batches", len(batches)),
			)
		}
		result.BatchesSent++
		logger.Debug("Sent notification batch", "batch", i+1, "batches", len(batches), "size", len(batch))
	}

	uc.cache.InsertAll(keys)
	result.Notified = keys

	logger.Info("Sent notifications",
		"notifications", len(entries),
		"batches", len(batches),
		"cache_size", uc.cache.Len(),
	)
	return nil
}

// pending derives the identity key of every candidate and drops those
// already announced. A key repeated within one snapshot is kept once.
func (uc *notifyUseCase) pending(candidates []*model.Image) ([]pendingUpdate, error) {
	var pending []pendingUpdate
	seen := make(map[model.IdentityKey]struct{}, len(candidates))

	for _, img := range candidates {
		key, err := img.IdentityKey()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if uc.cache.Contains(key) {
			continue
		}
		pending = append(pending, pendingUpdate{image: img, key: key})
	}

	return pending, nil
}

// Status returns the cache size and the last finished run
func (uc *notifyUseCase) Status(ctx context.Context) *model.Status {
	uc.statusMu.RLock()
	defer uc.statusMu.RUnlock()

	status := &model.Status{
		CacheSize: uc.cache.Len(),
	}
	if uc.lastRun != nil {
		lastRun := *uc.lastRun
		status.LastRun = &lastRun
	}
	return status
}

// FilterCandidates keeps images that are in use and have an update, in
// their original order.
func FilterCandidates(images []*model.Image) []*model.Image {
	var candidates []*model.Image
	for _, img := range images {
		if img != nil && img.NeedsNotification() {
			candidates = append(candidates, img)
		}
	}
	return candidates
}

// RenderNotification builds the human readable notification of an image update
func RenderNotification(img *model.Image) (*model.Notification, error) {
	name := img.IconName()

	var description string
	switch info := img.Result.Info.(type) {
	case *model.VersionUpdate:
		description = fmt.Sprintf("Image %s running with version %s can be updated to %s",
			name, info.CurrentVersion, info.NewVersion)

	case *model.DigestUpdate:
		if len(info.LocalDigests) == 0 {
			return nil, goerr.New("digest update has no local digest",
				goerr.V("reference", img.Reference),
				goerr.T(types.ErrTagSourceData),
			)
		}
		description = fmt.Sprintf("Image %s running with digest %s can be updated to %s",
			name, info.LocalDigests[0], info.RemoteDigest)

	default:
		return nil, goerr.New("image has no update info",
			goerr.V("reference", img.Reference),
			goerr.T(types.ErrTagSourceData),
		)
	}

	return &model.Notification{
		Title:        "New version of " + img.Identity(),
		Description:  description,
		Color:        NotificationColor,
		URL:          img.URL,
		ThumbnailURL: fmt.Sprintf(iconURLFormat, name),
	}, nil
}

// SplitBatches splits items into contiguous groups of at most size items.
// Only the last group may be shorter. A size below 1 is treated as 1.
func SplitBatches[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
