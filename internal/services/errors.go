package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classify collaborator failures so the pipeline can report
// which stage degraded without inspecting error strings.
var (
	ErrCaptureUnavailable     = errors.New("capture unavailable")
	ErrRecognitionUnavailable = errors.New("recognition unavailable")
	ErrEmbeddingUnavailable   = errors.New("embedding unavailable")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the sentinel marker carried by err, or nil when the error
// is not tagged with one.
func Classify(err error) error {
	for _, marker := range []error{
		ErrCaptureUnavailable,
		ErrRecognitionUnavailable,
		ErrEmbeddingUnavailable,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
