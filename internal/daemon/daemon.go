package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"glimpse/internal/captures"
	"glimpse/internal/config"
	"glimpse/internal/logging"
	"glimpse/internal/pipeline"
	"glimpse/internal/scheduler"
)

// Daemon coordinates capture sessions and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *captures.Store
	processor *pipeline.Processor
	scheduler *scheduler.Scheduler

	lockPath string
	lock     *flock.Flock

	startedAt time.Time
	running   atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	StartedAt    time.Time
	Sessions     []scheduler.SessionInfo
	DBPath       string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *captures.Store, processor *pipeline.Processor, sched *scheduler.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || processor == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, processor, and scheduler")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "glimpsed.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		processor: processor,
		scheduler: sched,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another glimpse daemon instance is already running")
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.InfoContext(ctx, "glimpse daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts all sessions and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("glimpse daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// StartSession begins periodic capture for the given session.
func (d *Daemon) StartSession(id, outputDir string, interval, duration time.Duration) error {
	if interval <= 0 {
		interval = time.Duration(d.cfg.Scheduler.CaptureInterval) * time.Second
	}
	return d.scheduler.StartSession(id, outputDir, interval, duration)
}

// StopSession requests the session to stop capturing.
func (d *Daemon) StopSession(id string) {
	d.scheduler.StopSession(id)
}

// Sessions returns snapshots of every active session.
func (d *Daemon) Sessions() []scheduler.SessionInfo {
	return d.scheduler.ActiveSessions()
}

// IngestImage runs an existing image through the session's dedup decision.
// The ingested image is compared and stored standalone; it does not share
// dedup state with a live scheduled session of the same id.
func (d *Daemon) IngestImage(ctx context.Context, sessionID, imagePath string) (*pipeline.Result, error) {
	return d.processor.ProcessImage(ctx, pipeline.NewSession(sessionID, ""), imagePath)
}

// Records returns stored captures for the session, oldest first.
func (d *Daemon) Records(ctx context.Context, sessionID string) ([]*captures.Record, error) {
	if d.store == nil {
		return nil, errors.New("captures store unavailable")
	}
	return d.store.BySession(ctx, sessionID)
}

// RecentRecords returns the most recent captures across all sessions.
func (d *Daemon) RecentRecords(ctx context.Context, limit int) ([]*captures.Record, error) {
	if d.store == nil {
		return nil, errors.New("captures store unavailable")
	}
	return d.store.Recent(ctx, limit)
}

// ClearRecords removes all stored captures for the session.
func (d *Daemon) ClearRecords(ctx context.Context, sessionID string) (int64, error) {
	if d.store == nil {
		return 0, errors.New("captures store unavailable")
	}
	return d.store.ClearSession(ctx, sessionID)
}

// RecordStats aggregates stored capture counts per session.
func (d *Daemon) RecordStats(ctx context.Context) ([]captures.SessionStats, error) {
	if d.store == nil {
		return nil, errors.New("captures store unavailable")
	}
	return d.store.Stats(ctx)
}

// DatabaseHealth inspects the captures database.
func (d *Daemon) DatabaseHealth(ctx context.Context) (captures.DatabaseHealth, error) {
	if d.store == nil {
		return captures.DatabaseHealth{}, errors.New("captures store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		StartedAt:    d.startedAt,
		Sessions:     d.scheduler.ActiveSessions(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
