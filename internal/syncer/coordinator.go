package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fieldwork/internal/logging"
	"fieldwork/internal/store"
)

// Result summarizes one sync run. It is ephemeral; nothing here is
// persisted.
type Result struct {
	Success bool
	Synced  int
	Failed  int
	Total   int
	Items   []ItemResult
}

// ItemResult is the per-packet outcome of a run.
type ItemResult struct {
	SurveyID string
	Key      string
	Synced   bool
	Error    string
}

// Status is a live snapshot of coordinator and store state.
type Status struct {
	IsOnline     bool
	IsSyncing    bool
	Progress     float64
	PendingCount int
	SyncedCount  int
	TotalCount   int
}

// Coordinator drains pending packets serially to the destination.
type Coordinator struct {
	store    *store.Store
	uploader Uploader
	logger   *slog.Logger
	clock    func() time.Time

	mu        sync.Mutex
	online    bool
	syncing   bool
	processed int
	total     int
}

// CoordinatorOption configures optional Coordinator behavior.
type CoordinatorOption func(*Coordinator)

// WithClock overrides the time source; tests use a fixed clock.
func WithClock(clock func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.clock = clock }
}

// NewCoordinator constructs a coordinator. Connectivity starts online;
// the owner pushes updates through SetOnline.
func NewCoordinator(st *store.Store, uploader Uploader, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:    st,
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "syncer"),
		clock:    func() time.Time { return time.Now().UTC() },
		online:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOnline pushes a connectivity update into the coordinator.
func (c *Coordinator) SetOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()
	if changed {
		c.logger.Info("connectivity changed", logging.Bool("online", online))
	}
}

// IsOnline reports the last pushed connectivity state.
func (c *Coordinator) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// SyncAll drains every pending packet serially, in store order. It fails
// fast with ErrOffline or ErrBusy; per-packet upload failures are recorded
// in the result and do not abort the batch. Syncing state and progress
// reset on every exit path.
func (c *Coordinator) SyncAll(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if !c.online {
		c.mu.Unlock()
		return nil, ErrOffline
	}
	if c.syncing {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.syncing = true
	c.processed = 0
	c.total = 0
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.processed = 0
		c.total = 0
		c.mu.Unlock()
	}()

	pending := c.store.ListPending(ctx)
	if len(pending) == 0 {
		return &Result{Success: true}, nil
	}

	c.mu.Lock()
	c.total = len(pending)
	c.mu.Unlock()

	c.logger.Info("sync run started", logging.Int("pending", len(pending)))
	start := c.clock()

	result := &Result{Total: len(pending)}
	for _, packet := range pending {
		// One packet finishes, successfully or not, before the next
		// begins; a cancelled context aborts the remainder of the run.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := UploadKey(packet, c.clock())
		item := ItemResult{SurveyID: packet.SurveyID, Key: key}

		if err := c.uploader.Upload(ctx, key, packet); err != nil {
			item.Error = err.Error()
			result.Failed++
			c.logger.Warn("packet upload failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "sync_upload_failed"),
				logging.String(logging.FieldSurveyID, packet.SurveyID),
				logging.String(logging.FieldErrorHint, "packet stays pending for the next run"))
		} else {
			c.store.MarkSynced(ctx, packet.SurveyID)
			item.Synced = true
			result.Synced++
		}
		result.Items = append(result.Items, item)

		c.mu.Lock()
		c.processed++
		c.mu.Unlock()
	}

	result.Success = result.Failed == 0
	c.logger.Info("sync run finished",
		logging.Int("synced", result.Synced),
		logging.Int("failed", result.Failed),
		logging.Int("total", result.Total),
		logging.Duration("elapsed", c.clock().Sub(start)))
	return result, nil
}

// Status reports live connectivity, run progress, and store counts.
func (c *Coordinator) Status(ctx context.Context) Status {
	stats := c.store.Stats(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	status := Status{
		IsOnline:     c.online,
		IsSyncing:    c.syncing,
		PendingCount: stats.Pending,
		SyncedCount:  stats.Synced,
		TotalCount:   stats.Total,
	}
	if c.total > 0 {
		status.Progress = float64(c.processed) / float64(c.total)
	}
	return status
}
