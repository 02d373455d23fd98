package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"glimpse/internal/services"
)

type stubExecutor struct {
	binary string
	args   []string
	err    error
	write  bool
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) error {
	s.binary = binary
	s.args = args
	if s.err != nil {
		return s.err
	}
	if s.write && len(args) > 0 {
		path := args[len(args)-1]
		if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  ", nil, 30); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestCaptureWritesImage(t *testing.T) {
	exec := &stubExecutor{write: true}
	client, err := New("scrot", nil, 30, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := filepath.Join(t.TempDir(), "shot.png")
	if err := client.Capture(context.Background(), target); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if exec.binary != "scrot" {
		t.Fatalf("binary = %q, want scrot", exec.binary)
	}
	if len(exec.args) != 2 || exec.args[0] != "--overwrite" || exec.args[1] != target {
		t.Fatalf("unexpected scrot args: %v", exec.args)
	}
}

func TestCaptureScreencaptureArgs(t *testing.T) {
	exec := &stubExecutor{write: true}
	client, err := New("/usr/sbin/screencapture", nil, 30, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := filepath.Join(t.TempDir(), "shot.png")
	if err := client.Capture(context.Background(), target); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(exec.args) != 2 || exec.args[0] != "-x" || exec.args[1] != target {
		t.Fatalf("unexpected screencapture args: %v", exec.args)
	}
}

func TestCaptureCommandFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("exit status 1")}
	client, err := New("scrot", nil, 30, WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := filepath.Join(t.TempDir(), "shot.png")
	err = client.Capture(context.Background(), target)
	if err == nil {
		t.Fatal("expected capture error")
	}
	if services.Classify(err) != services.ErrCaptureUnavailable {
		t.Fatalf("classified as %v, want capture unavailable", services.Classify(err))
	}
}

func TestCaptureMissingOutput(t *testing.T) {
	client, err := New("scrot", nil, 30, WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	target := filepath.Join(t.TempDir(), "shot.png")
	if err := client.Capture(context.Background(), target); err == nil {
		t.Fatal("expected error when tool produced no file")
	}
}
