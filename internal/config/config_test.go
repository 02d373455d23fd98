package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"glimpse/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantImages := filepath.Join(tempHome, ".local", "share", "glimpse", "images")
	if cfg.Paths.ImagesDir != wantImages {
		t.Fatalf("unexpected images dir: got %q want %q", cfg.Paths.ImagesDir, wantImages)
	}
	if cfg.Pipeline.SimilarityThreshold != 0.7 {
		t.Fatalf("unexpected similarity threshold: %v", cfg.Pipeline.SimilarityThreshold)
	}
	if cfg.Scheduler.CaptureInterval != 30 {
		t.Fatalf("unexpected capture interval: %d", cfg.Scheduler.CaptureInterval)
	}
	if cfg.OCR.Binary != "tesseract" {
		t.Fatalf("unexpected OCR binary: %q", cfg.OCR.Binary)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadReadsFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glimpse.toml")
	content := `
[paths]
images_dir = "` + filepath.Join(dir, "images") + `"
temp_dir = "` + filepath.Join(dir, "temp") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[ocr]
languages = ["ENG", "eng", " deu "]

[pipeline]
similarity_threshold = 0.5

[logging]
format = "fancy"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if got := cfg.OCR.Languages; len(got) != 2 || got[0] != "eng" || got[1] != "deu" {
		t.Fatalf("expected deduplicated lowercase languages, got %v", got)
	}
	if cfg.Pipeline.SimilarityThreshold != 0.5 {
		t.Fatalf("unexpected threshold: %v", cfg.Pipeline.SimilarityThreshold)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected unknown log format to normalize to console, got %q", cfg.Logging.Format)
	}
	if cfg.TesseractLanguageArg() != "eng+deu" {
		t.Fatalf("unexpected tesseract language arg: %q", cfg.TesseractLanguageArg())
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.SimilarityThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for threshold above 1")
	}
}

func TestValidateRejectsUnknownLanguage(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Languages = []string{"not-a-language-tag!"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad language tag")
	}
}

func TestValidateRejectsSharedTempAndImagesDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ImagesDir = "/tmp/same"
	cfg.Paths.TempDir = "/tmp/same"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when dirs collide")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample config content")
	}
}
