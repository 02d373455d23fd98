package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ImagesDir == "" {
		return errors.New("paths.images_dir must be set")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must be set")
	}
	if c.Paths.ImagesDir == c.Paths.TempDir {
		return errors.New("paths.images_dir and paths.temp_dir must differ")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if len(c.OCR.Languages) == 0 {
		return errors.New("ocr.languages must include at least one language")
	}
	for _, lang := range c.OCR.Languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("ocr.languages: unrecognized tag %q: %w", lang, err)
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.SimilarityThreshold < 0 || c.Pipeline.SimilarityThreshold > 1 {
		return errors.New("pipeline.similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.CaptureInterval <= 0 {
		return errors.New("scheduler.capture_interval must be positive")
	}
	if c.Scheduler.ErrorRetryInterval <= 0 {
		return errors.New("scheduler.error_retry_interval must be positive")
	}
	return nil
}
