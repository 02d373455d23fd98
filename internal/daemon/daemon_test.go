package daemon_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"glimpse/internal/captures"
	"glimpse/internal/config"
	"glimpse/internal/daemon"
	"glimpse/internal/logging"
	"glimpse/internal/pipeline"
	"glimpse/internal/scheduler"
	"glimpse/internal/testsupport"
)

type staticRecognizer struct{ text string }

func (s staticRecognizer) Recognize(context.Context, string) (string, error) {
	return s.text, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func newDaemon(t *testing.T, cfg *config.Config, store *captures.Store) *daemon.Daemon {
	t.Helper()

	proc, err := pipeline.New(cfg, store, logging.NewNop(),
		pipeline.WithRecognizer(staticRecognizer{text: "daemon test"}),
		pipeline.WithEmbedder(staticEmbedder{}),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	sched, err := scheduler.New(proc, logging.NewNop())
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	d, err := daemon.New(cfg, store, proc, sched, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	first := newDaemon(t, cfg, store)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second := newDaemon(t, cfg, store)
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected lock conflict for second instance")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
}

func TestStatusReflectsRuntime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	if d.Status().Running {
		t.Fatal("daemon should not report running before Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.DBPath == "" || status.LockFilePath == "" {
		t.Fatalf("incomplete status: %+v", status)
	}
}

func TestSessionLifecycleThroughDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.StartSession("session-a", "", 10*time.Millisecond, 0); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sessions := d.Sessions()
		if len(sessions) == 1 && sessions[0].Processed >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	d.StopSession("session-a")
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(d.Sessions()) == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(d.Sessions()) != 0 {
		t.Fatal("session still active after stop")
	}
}

func TestIngestAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	source := filepath.Join(filepath.Dir(cfg.Paths.TempDir), "external.png")
	testsupport.WriteImage(t, source)

	ctx := context.Background()
	result, err := d.IngestImage(ctx, "ingest-session", source)
	if err != nil {
		t.Fatalf("IngestImage: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("ingest discarded: %+v", result)
	}

	records, err := d.Records(ctx, "ingest-session")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	removed, err := d.ClearRecords(ctx, "ingest-session")
	if err != nil {
		t.Fatalf("ClearRecords: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}

	health, err := d.DatabaseHealth(ctx)
	if err != nil {
		t.Fatalf("DatabaseHealth: %v", err)
	}
	if !health.DatabaseReadable {
		t.Fatalf("unexpected health: %+v", health)
	}
}
