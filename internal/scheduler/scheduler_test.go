package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"glimpse/internal/logging"
	"glimpse/internal/pipeline"
	"glimpse/internal/testsupport"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *fakeRunner) Process(_ context.Context, _ *pipeline.Session) (*pipeline.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Accepted: true}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newScheduler(t *testing.T, runner Runner) *Scheduler {
	t.Helper()
	sched, err := New(runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(sched.Stop)
	return sched
}

func TestStartSessionRunsRepeatedly(t *testing.T) {
	runner := &fakeRunner{}
	sched := newScheduler(t, runner)

	if err := sched.StartSession("session-a", "", 10*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() >= 3 })

	if !sched.IsSessionActive("session-a") {
		t.Fatal("session should still be active")
	}
	infos := sched.ActiveSessions()
	if len(infos) != 1 || infos[0].ID != "session-a" {
		t.Fatalf("unexpected sessions: %+v", infos)
	}
	if infos[0].Processed < 3 {
		t.Fatalf("processed = %d", infos[0].Processed)
	}
}

func TestStartSessionValidation(t *testing.T) {
	sched := newScheduler(t, &fakeRunner{})

	if err := sched.StartSession("", "", time.Second, 0); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := sched.StartSession("session-a", "", 0, 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if err := sched.StartSession("session-a", "", time.Second, -time.Second); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestStartSessionDuplicateIsNoOp(t *testing.T) {
	runner := &fakeRunner{}
	sched := newScheduler(t, runner)

	if err := sched.StartSession("session-a", "", time.Hour, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() == 1 })

	// A second start is not an error and must not disturb the running loop.
	if err := sched.StartSession("session-a", "", time.Hour, 0); err != nil {
		t.Fatalf("duplicate StartSession: %v", err)
	}
	if infos := sched.ActiveSessions(); len(infos) != 1 {
		t.Fatalf("sessions = %d after duplicate start", len(infos))
	}
	time.Sleep(50 * time.Millisecond)
	if got := runner.callCount(); got != 1 {
		t.Fatalf("calls = %d, duplicate start restarted the loop", got)
	}
}

func TestStartSessionCreatesOutputDir(t *testing.T) {
	sched := newScheduler(t, &fakeRunner{})

	outputDir := filepath.Join(t.TempDir(), "captures", "session-a")
	if err := sched.StartSession("session-a", outputDir, time.Hour, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	info, err := os.Stat(outputDir)
	if err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", outputDir)
	}
}

func TestStopSessionEndsLoop(t *testing.T) {
	runner := &fakeRunner{}
	sched := newScheduler(t, runner)

	if err := sched.StartSession("session-a", "", 10*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() >= 1 })

	sched.StopSession("session-a")
	waitFor(t, 2*time.Second, func() bool { return !sched.IsSessionActive("session-a") })

	settled := runner.callCount()
	time.Sleep(50 * time.Millisecond)
	if runner.callCount() != settled {
		t.Fatal("captures continued after stop")
	}
}

func TestStopSessionIdempotent(t *testing.T) {
	sched := newScheduler(t, &fakeRunner{})

	// Unknown session: warn and carry on.
	sched.StopSession("never-started")

	if err := sched.StartSession("session-a", "", 10*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	sched.StopSession("session-a")
	sched.StopSession("session-a")
	waitFor(t, 2*time.Second, func() bool { return !sched.IsSessionActive("session-a") })
}

func TestSessionExpiresAfterDuration(t *testing.T) {
	runner := &fakeRunner{}
	sched := newScheduler(t, runner)

	if err := sched.StartSession("session-a", "", 10*time.Millisecond, 50*time.Millisecond); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return !sched.IsSessionActive("session-a") })

	settled := runner.callCount()
	time.Sleep(50 * time.Millisecond)
	if runner.callCount() != settled {
		t.Fatal("captures continued past session duration")
	}
}

func TestSessionSurvivesCaptureErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("capture failed")}
	sched := newScheduler(t, runner)

	if err := sched.StartSession("session-a", "", 10*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() >= 3 })

	if !sched.IsSessionActive("session-a") {
		t.Fatal("session terminated by capture errors")
	}
}

func TestErrorRetryIntervalShortensBackoff(t *testing.T) {
	runner := &fakeRunner{err: errors.New("capture failed")}
	sched, err := New(runner, logging.NewNop(), WithErrorRetryInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(sched.Stop)

	// With a long regular interval, repeated attempts prove the error retry
	// pause is the one in effect.
	if err := sched.StartSession("session-a", "", time.Hour, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() >= 3 })
}

func TestCapturesAreSequential(t *testing.T) {
	release := make(chan struct{})
	runner := &fakeRunner{block: release}
	sched := newScheduler(t, runner)

	if err := sched.StartSession("session-a", "", time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() == 1 })

	// The first capture is still in flight; no second attempt may start.
	time.Sleep(50 * time.Millisecond)
	if got := runner.callCount(); got != 1 {
		t.Fatalf("calls = %d while capture in flight", got)
	}
	close(release)
	waitFor(t, 2*time.Second, func() bool { return runner.callCount() >= 2 })
}

type writeFileCapturer struct{}

func (writeFileCapturer) Capture(_ context.Context, outputPath string) error {
	return os.WriteFile(outputPath, []byte("png"), 0o644)
}

type staticRecognizer string

func (r staticRecognizer) Recognize(context.Context, string) (string, error) {
	return string(r), nil
}

type staticEmbedder []float64

func (e staticEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64(e), nil
}

func TestConcurrentSessionsRunIndependently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	proc, err := pipeline.New(cfg, store, logging.NewNop(),
		pipeline.WithCapturer(writeFileCapturer{}),
		pipeline.WithRecognizer(staticRecognizer("steady desktop text")),
		pipeline.WithEmbedder(staticEmbedder{1, 0, 0}),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	sched := newScheduler(t, proc)

	if err := sched.StartSession("fast", "", 5*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession fast: %v", err)
	}
	if err := sched.StartSession("slow", "", 60*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession slow: %v", err)
	}

	statsOf := func(id string) (processed, accepted int) {
		for _, info := range sched.ActiveSessions() {
			if info.ID == id {
				return info.Processed, info.Accepted
			}
		}
		return 0, 0
	}
	waitFor(t, 5*time.Second, func() bool {
		fast, _ := statsOf("fast")
		slow, _ := statsOf("slow")
		return fast >= 12 && slow >= 1
	})

	fastProcessed, fastAccepted := statsOf("fast")
	slowProcessed, slowAccepted := statsOf("slow")
	if fastProcessed < 2*slowProcessed {
		t.Fatalf("tick counts not proportional to intervals: fast=%d slow=%d", fastProcessed, slowProcessed)
	}
	// Every capture carries identical text, so only a capture with no
	// baseline is accepted. Exactly one accept per session proves each
	// session compares against its own last accepted embedding.
	if fastAccepted != 1 || slowAccepted != 1 {
		t.Fatalf("accepted fast=%d slow=%d, want 1 and 1", fastAccepted, slowAccepted)
	}
}

func TestStopHaltsAllSessions(t *testing.T) {
	runner := &fakeRunner{}
	sched, err := New(runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := sched.StartSession(id, "", 10*time.Millisecond, 0); err != nil {
			t.Fatalf("StartSession %s: %v", id, err)
		}
	}
	sched.Stop()

	if len(sched.ActiveSessions()) != 0 {
		t.Fatal("sessions remain after Stop")
	}
	if err := sched.StartSession("d", "", time.Second, 0); err == nil {
		t.Fatal("expected error starting session on stopped scheduler")
	}
}
