package main

import (
	"log/slog"

	"glimpse/internal/capture"
	"glimpse/internal/captures"
	"glimpse/internal/config"
	"glimpse/internal/embedding"
	"glimpse/internal/logging"
	"glimpse/internal/ocr"
	"glimpse/internal/pipeline"
)

// buildProcessor wires the pipeline collaborators from configuration. A
// collaborator that cannot be constructed is logged and left unbound; the
// pipeline then reports it as unavailable per capture instead of blocking
// daemon startup.
func buildProcessor(cfg *config.Config, store *captures.Store, logger *slog.Logger) (*pipeline.Processor, error) {
	var opts []pipeline.Option

	capturer, err := capture.New(cfg.Capture.Binary, cfg.Capture.ExtraArgs, cfg.Capture.TimeoutSeconds)
	if err != nil {
		logger.Warn("capture tool not configured", logging.Error(err))
	} else {
		opts = append(opts, pipeline.WithCapturer(capturer))
	}

	recognizer, err := ocr.New(cfg.OCR.Binary, cfg.TesseractLanguageArg(), cfg.OCR.TimeoutSeconds)
	if err != nil {
		logger.Warn("recognition tool not configured", logging.Error(err))
	} else {
		opts = append(opts, pipeline.WithRecognizer(recognizer))
	}

	embedder, err := embedding.New(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.TimeoutSeconds)
	if err != nil {
		logger.Warn("embedding service not configured", logging.Error(err))
	} else {
		opts = append(opts, pipeline.WithEmbedder(embedder))
	}

	return pipeline.New(cfg, store, logger, opts...)
}
