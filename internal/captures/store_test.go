package captures_test

import (
	"context"
	"testing"
	"time"

	"glimpse/internal/testsupport"
)

func TestAddAndBySession(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.Add(ctx, "session-a", "/images/a1.png", "hello world", time.Now())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected assigned record id")
	}
	if _, err := store.Add(ctx, "session-a", "/images/a2.png", "", time.Now()); err != nil {
		t.Fatalf("Add second: %v", err)
	}
	if _, err := store.Add(ctx, "session-b", "/images/b1.png", "other", time.Now()); err != nil {
		t.Fatalf("Add other session: %v", err)
	}

	records, err := store.BySession(ctx, "session-a")
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ImagePath != "/images/a1.png" || records[1].ImagePath != "/images/a2.png" {
		t.Fatalf("records out of order: %q, %q", records[0].ImagePath, records[1].ImagePath)
	}
	if records[0].ExtractedText != "hello world" {
		t.Fatalf("text = %q", records[0].ExtractedText)
	}
	if records[1].ExtractedText != "" {
		t.Fatalf("empty text round-trip = %q", records[1].ExtractedText)
	}
	if records[0].CapturedAt.IsZero() {
		t.Fatal("captured_at not persisted")
	}
}

func TestAddValidation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Add(ctx, "", "/images/a.png", "", time.Now()); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if _, err := store.Add(ctx, "session-a", "", "", time.Now()); err == nil {
		t.Fatal("expected error for empty image path")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, path := range []string{"/images/1.png", "/images/2.png", "/images/3.png"} {
		if _, err := store.Add(ctx, "session-a", path, "text", time.Now()); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ImagePath != "/images/3.png" {
		t.Fatalf("newest first, got %q", records[0].ImagePath)
	}
}

func TestStatsAndClearSession(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Add(ctx, "session-a", "/images/a1.png", "x", time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "session-a", "/images/a2.png", "y", time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "session-b", "/images/b1.png", "z", time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d stats rows, want 2", len(stats))
	}
	if stats[0].SessionID != "session-a" || stats[0].Count != 2 {
		t.Fatalf("unexpected stats: %+v", stats[0])
	}

	removed, err := store.ClearSession(ctx, "session-a")
	if err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	remaining, err := store.BySession(ctx, "session-a")
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected session cleared, got %d records", len(remaining))
	}
}

func TestCheckHealth(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Add(ctx, "session-a", "/images/a.png", "x", time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("missing columns: %v", health.MissingColumns)
	}
	if health.TotalRecords != 1 {
		t.Fatalf("total records = %d", health.TotalRecords)
	}
	if !health.IntegrityCheck {
		t.Fatal("integrity check failed")
	}
}
