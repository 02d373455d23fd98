package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"glimpse/internal/logging"
	"glimpse/internal/pipeline"
	"glimpse/internal/services"
)

// Runner executes one capture attempt for a session. *pipeline.Processor is
// the production implementation.
type Runner interface {
	Process(ctx context.Context, session *pipeline.Session) (*pipeline.Result, error)
}

// SessionInfo is a point-in-time snapshot of a running session.
type SessionInfo struct {
	ID        string
	StartedAt time.Time
	Interval  time.Duration
	Duration  time.Duration
	ExpiresAt time.Time
	Processed int
	Accepted  int
}

// Scheduler owns the capture sessions. Each session runs on its own
// goroutine; the registry mutex only guards bookkeeping, never capture work.
type Scheduler struct {
	runner     Runner
	logger     *slog.Logger
	errorRetry time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionRunner
	wg       sync.WaitGroup
	closed   bool
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithErrorRetryInterval sets the pause after a failed capture attempt. When
// unset, failed attempts wait the session's regular interval.
func WithErrorRetryInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.errorRetry = d
		}
	}
}

type sessionRunner struct {
	session   *pipeline.Session
	startedAt time.Time
	interval  time.Duration
	duration  time.Duration
	stop      chan struct{}
	stopOnce  sync.Once

	statsMu   sync.Mutex
	processed int
	accepted  int
}

func (r *sessionRunner) requestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *sessionRunner) recordTick(result *pipeline.Result) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.processed++
	if result != nil && result.Accepted {
		r.accepted++
	}
}

func (r *sessionRunner) stats() (processed, accepted int) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.processed, r.accepted
}

// New constructs a scheduler around the given runner.
func New(runner Runner, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner required")
	}
	sched := &Scheduler{
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		sessions: make(map[string]*sessionRunner),
	}
	for _, opt := range opts {
		opt(sched)
	}
	return sched, nil
}

// StartSession begins periodic capture for the session. interval is the
// pause between completed capture attempts; duration limits the session's
// lifetime, with zero meaning until stopped. Starting an already active
// session logs a warning and leaves the running session untouched. The
// output directory is created upfront when one is given.
func (s *Scheduler) StartSession(id, outputDir string, interval, duration time.Duration) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("session id required")
	}
	if interval <= 0 {
		return errors.New("capture interval must be positive")
	}
	if duration < 0 {
		return errors.New("session duration cannot be negative")
	}
	outputDir = strings.TrimSpace(outputDir)
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("scheduler stopped")
	}
	if _, exists := s.sessions[id]; exists {
		s.mu.Unlock()
		s.logger.Warn("session already active",
			logging.String(logging.FieldSessionID, id))
		return nil
	}
	runner := &sessionRunner{
		session:   pipeline.NewSession(id, outputDir),
		startedAt: time.Now(),
		interval:  interval,
		duration:  duration,
		stop:      make(chan struct{}),
	}
	s.sessions[id] = runner
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runner)

	s.logger.Info("session started",
		logging.String(logging.FieldSessionID, id),
		logging.Duration("interval", interval),
		logging.Duration("duration", duration))
	return nil
}

// StopSession requests the session's goroutine to exit. Stopping an unknown
// or already stopped session logs a warning and is otherwise a no-op.
func (s *Scheduler) StopSession(id string) {
	s.mu.Lock()
	runner, exists := s.sessions[id]
	s.mu.Unlock()

	if !exists {
		s.logger.Warn("stop requested for inactive session",
			logging.String(logging.FieldSessionID, id))
		return
	}
	runner.requestStop()
}

// IsSessionActive reports whether the session is currently running.
func (s *Scheduler) IsSessionActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.sessions[id]
	return exists
}

// ActiveSessions returns snapshots of every running session.
func (s *Scheduler) ActiveSessions() []SessionInfo {
	s.mu.Lock()
	runners := make([]*sessionRunner, 0, len(s.sessions))
	for _, runner := range s.sessions {
		runners = append(runners, runner)
	}
	s.mu.Unlock()

	infos := make([]SessionInfo, 0, len(runners))
	for _, runner := range runners {
		processed, accepted := runner.stats()
		info := SessionInfo{
			ID:        runner.session.ID,
			StartedAt: runner.startedAt,
			Interval:  runner.interval,
			Duration:  runner.duration,
			Processed: processed,
			Accepted:  accepted,
		}
		if runner.duration > 0 {
			info.ExpiresAt = runner.startedAt.Add(runner.duration)
		}
		infos = append(infos, info)
	}
	return infos
}

// Stop halts every session and waits for their goroutines to exit. The
// scheduler cannot be reused afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	runners := make([]*sessionRunner, 0, len(s.sessions))
	for _, runner := range s.sessions {
		runners = append(runners, runner)
	}
	s.mu.Unlock()

	for _, runner := range runners {
		runner.requestStop()
	}
	s.wg.Wait()
}

// run is the per-session loop. Captures are sequential: the next attempt is
// scheduled only after the previous one fully completes. Expiry is checked at
// the top of the loop so a session never captures past its duration.
func (s *Scheduler) run(runner *sessionRunner) {
	defer s.wg.Done()
	defer s.remove(runner.session.ID)

	id := runner.session.ID
	ctx := services.WithSessionID(context.Background(), id)

	for {
		select {
		case <-runner.stop:
			s.logger.Info("session stopped", logging.String(logging.FieldSessionID, id))
			return
		default:
		}

		if runner.duration > 0 && time.Since(runner.startedAt) >= runner.duration {
			s.logger.Info("session expired",
				logging.String(logging.FieldSessionID, id),
				logging.Duration("duration", runner.duration))
			return
		}

		result, err := s.runner.Process(ctx, runner.session)
		runner.recordTick(result)
		pause := runner.interval
		if err != nil {
			attrs := []logging.Attr{
				logging.String(logging.FieldSessionID, id),
				logging.Error(err),
			}
			if marker := services.Classify(err); marker != nil {
				attrs = append(attrs, logging.String("cause", marker.Error()))
			}
			s.logger.Error("capture attempt failed", logging.Args(attrs...)...)
			if s.errorRetry > 0 {
				pause = s.errorRetry
			}
		}

		select {
		case <-runner.stop:
			s.logger.Info("session stopped", logging.String(logging.FieldSessionID, id))
			return
		case <-time.After(pause):
		}
	}
}

func (s *Scheduler) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
