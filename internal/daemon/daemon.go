package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"fieldwork/internal/config"
	"fieldwork/internal/logging"
	"fieldwork/internal/store"
	"fieldwork/internal/syncer"
)

// Daemon coordinates the background collector loops and enforces
// single-instance execution.
type Daemon struct {
	cfg         *config.Config
	store       *store.Store
	coordinator *syncer.Coordinator
	uploader    syncer.Uploader
	logger      *slog.Logger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Sync         syncer.Status
	StoreBackend string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, coordinator *syncer.Coordinator, uploader syncer.Uploader, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || coordinator == nil || uploader == nil {
		return nil, errors.New("daemon requires config, store, coordinator, and uploader")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "fieldwork.lock")
	return &Daemon{
		cfg:         cfg,
		store:       st,
		coordinator: coordinator,
		uploader:    uploader,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}, nil
}

// Start acquires the collector lock and launches the probe and drain
// loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fieldwork collector instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.probe(runCtx)

	d.wg.Add(2)
	go d.probeLoop(runCtx)
	go d.drainLoop(runCtx)

	d.logger.Info("collector started",
		logging.String("lock", d.lockPath),
		logging.String("destination", d.cfg.Sync.Destination))
	return nil
}

// Stop terminates the loops and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release collector lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if a restart is refused"))
	}
	d.running.Store(false)
	d.logger.Info("collector stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports runtime state for CLI presentation.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Sync:         d.coordinator.Status(ctx),
		StoreBackend: d.store.BackendName(),
		LockFilePath: d.lockPath,
	}
}

func (d *Daemon) probeLoop(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Sync.ProbeInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.probe(ctx)
		}
	}
}

// probe feeds destination reachability into the coordinator's
// connectivity signal.
func (d *Daemon) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(d.cfg.Sync.ProbeTimeout)*time.Second)
	defer cancel()

	err := d.uploader.Probe(probeCtx)
	if err != nil && ctx.Err() == nil {
		d.logger.Debug("connectivity probe failed", logging.Error(err))
	}
	d.coordinator.SetOnline(err == nil)
}

func (d *Daemon) drainLoop(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Sync.DrainInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Daemon) drain(ctx context.Context) {
	result, err := d.coordinator.SyncAll(ctx)
	if err != nil {
		// Offline and overlapping runs are routine; anything else is a
		// real failure worth surfacing.
		if errors.Is(err, syncer.ErrOffline) || errors.Is(err, syncer.ErrBusy) || errors.Is(err, context.Canceled) {
			return
		}
		d.logger.Error("drain failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_drain_failed"),
			logging.String(logging.FieldErrorHint, "pending packets remain; next drain retries"))
		return
	}
	if result.Total > 0 && result.Failed > 0 {
		d.logger.Warn("drain completed with failures",
			logging.Int("synced", result.Synced),
			logging.Int("failed", result.Failed),
			logging.String(logging.FieldEventType, "daemon_drain_partial"),
			logging.String(logging.FieldImpact, "failed packets stay pending"))
	}
}
