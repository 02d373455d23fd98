package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"glimpse/internal/capture"
	"glimpse/internal/captures"
	"glimpse/internal/config"
	"glimpse/internal/embedding"
	"glimpse/internal/fileutil"
	"glimpse/internal/logging"
	"glimpse/internal/ocr"
	"glimpse/internal/services"
)

// Processor turns raw screenshots into deduplicated capture records. Each
// capture flows through screen grab, text recognition, embedding, and a
// similarity decision against the session's last accepted capture.
type Processor struct {
	cfg        *config.Config
	store      *captures.Store
	capturer   capture.Capturer
	recognizer ocr.Recognizer
	embedder   embedding.Embedder
	threshold  float64
	logger     *slog.Logger
}

// Option configures the processor.
type Option func(*Processor)

// WithCapturer binds the screen capture collaborator.
func WithCapturer(c capture.Capturer) Option {
	return func(p *Processor) { p.capturer = c }
}

// WithRecognizer binds the text recognition collaborator.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(p *Processor) { p.recognizer = r }
}

// WithEmbedder binds the embedding collaborator.
func WithEmbedder(e embedding.Embedder) Option {
	return func(p *Processor) { p.embedder = e }
}

// New constructs a processor. Collaborators left unbound degrade into
// unavailable errors at capture time rather than failing construction, so the
// daemon can start with partial wiring.
func New(cfg *config.Config, store *captures.Store, logger *slog.Logger, opts ...Option) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	proc := &Processor{
		cfg:       cfg,
		store:     store,
		threshold: cfg.Pipeline.SimilarityThreshold,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(proc)
	}
	return proc, nil
}

// Process captures the screen for the session and runs the dedup decision.
// The temporary image is removed on every path; only accepted captures
// survive, filed under the session's output directory.
func (p *Processor) Process(ctx context.Context, session *Session) (*Result, error) {
	if session == nil || session.ID == "" {
		return nil, fmt.Errorf("session required")
	}
	if p.capturer == nil {
		return nil, services.Wrap(services.ErrCaptureUnavailable, "capture", "bind", "no capture tool configured", nil)
	}

	tempPath := p.tempImagePath()
	if err := p.capturer.Capture(services.WithStage(ctx, "capture"), tempPath); err != nil {
		fileutil.RemoveIfExists(tempPath)
		return nil, err
	}
	return p.evaluate(ctx, session, tempPath)
}

// ProcessImage runs the dedup decision against an existing image file instead
// of a fresh capture. The source file is copied, never moved, so callers keep
// their original.
func (p *Processor) ProcessImage(ctx context.Context, session *Session, imagePath string) (*Result, error) {
	if session == nil || session.ID == "" {
		return nil, fmt.Errorf("session required")
	}
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return nil, fmt.Errorf("image path required")
	}
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	tempPath := p.tempImagePath()
	if err := fileutil.CopyFile(imagePath, tempPath); err != nil {
		fileutil.RemoveIfExists(tempPath)
		return nil, fmt.Errorf("stage image: %w", err)
	}
	return p.evaluate(ctx, session, tempPath)
}

// evaluate owns tempPath from here on and removes it on every exit path.
func (p *Processor) evaluate(ctx context.Context, session *Session, tempPath string) (*Result, error) {
	session.processed++

	text, err := p.recognize(ctx, tempPath)
	if err != nil {
		fileutil.RemoveIfExists(tempPath)
		return nil, err
	}
	// Recognizers are not required to normalize; whitespace-only output is
	// still an empty screen and must never reach the embedder.
	text = strings.TrimSpace(text)
	if text == "" {
		fileutil.RemoveIfExists(tempPath)
		p.logger.InfoContext(ctx, "capture discarded",
			logging.String(logging.FieldSessionID, session.ID),
			logging.String(logging.FieldOutcome, string(DiscardNoText)))
		return &Result{DiscardReason: DiscardNoText}, nil
	}

	vector, err := p.embed(ctx, text)
	if err != nil {
		fileutil.RemoveIfExists(tempPath)
		return nil, err
	}

	similarity := 0.0
	if session.HasBaseline() {
		similarity = embedding.Cosine(session.lastEmbedding, vector)
	}
	if similarity >= p.threshold {
		fileutil.RemoveIfExists(tempPath)
		p.logger.InfoContext(ctx, "capture discarded",
			logging.String(logging.FieldSessionID, session.ID),
			logging.String(logging.FieldOutcome, string(DiscardDuplicate)),
			logging.Float64(logging.FieldSimilarity, similarity))
		return &Result{DiscardReason: DiscardDuplicate, Text: text, Similarity: similarity}, nil
	}

	capturedAt := time.Now().UTC()
	finalPath, err := p.fileImage(session, tempPath, capturedAt)
	if err != nil {
		fileutil.RemoveIfExists(tempPath)
		return nil, services.Wrap(services.ErrStorageUnavailable, "storage", "file image", "", err)
	}

	record, err := p.store.Add(ctx, session.ID, finalPath, text, capturedAt)
	if err != nil {
		fileutil.RemoveIfExists(finalPath)
		return nil, services.Wrap(services.ErrStorageUnavailable, "storage", "insert record", "", err)
	}

	session.lastEmbedding = vector
	session.accepted++

	p.logger.InfoContext(ctx, "capture accepted",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldOutcome, "accepted"),
		logging.Float64(logging.FieldSimilarity, similarity),
		logging.String("image", finalPath))

	return &Result{
		Accepted:   true,
		ImagePath:  finalPath,
		Text:       text,
		Similarity: similarity,
		RecordID:   record.ID,
	}, nil
}

func (p *Processor) recognize(ctx context.Context, imagePath string) (string, error) {
	if p.recognizer == nil {
		return "", services.Wrap(services.ErrRecognitionUnavailable, "ocr", "bind", "no recognition tool configured", nil)
	}
	return p.recognizer.Recognize(services.WithStage(ctx, "ocr"), imagePath)
}

func (p *Processor) embed(ctx context.Context, text string) ([]float64, error) {
	if p.embedder == nil {
		return nil, services.Wrap(services.ErrEmbeddingUnavailable, "embedding", "bind", "no embedding service configured", nil)
	}
	return p.embedder.Embed(services.WithStage(ctx, "embedding"), text)
}

func (p *Processor) tempImagePath() string {
	return filepath.Join(p.cfg.Paths.TempDir, uuid.NewString()+".png")
}

func (p *Processor) fileImage(session *Session, tempPath string, capturedAt time.Time) (string, error) {
	dir := session.OutputDir
	if dir == "" {
		dir = filepath.Join(p.cfg.Paths.ImagesDir, session.ID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("capture_%s_%s.png", capturedAt.Format("20060102T150405"), uuid.NewString()[:8])
	finalPath := filepath.Join(dir, name)
	if err := fileutil.MoveFile(tempPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}
