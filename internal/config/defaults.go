package config

import "runtime"

const (
	defaultImagesDir          = "~/.local/share/glimpse/images"
	defaultTempDir            = "~/.local/share/glimpse/temp"
	defaultLogDir             = "~/.local/share/glimpse/logs"
	defaultOCRBinary          = "tesseract"
	defaultCaptureTimeout     = 30
	defaultOCRTimeout         = 60
	defaultEmbeddingModel     = "text-embedding-3-small"
	defaultEmbeddingTimeout   = 30
	defaultSimilarityThresh   = 0.7
	defaultCaptureInterval    = 30
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

func defaultCaptureBinary() string {
	switch runtime.GOOS {
	case "darwin":
		return "screencapture"
	default:
		return "scrot"
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImagesDir: defaultImagesDir,
			TempDir:   defaultTempDir,
			LogDir:    defaultLogDir,
		},
		Capture: Capture{
			Binary:         defaultCaptureBinary(),
			TimeoutSeconds: defaultCaptureTimeout,
		},
		OCR: OCR{
			Binary:         defaultOCRBinary,
			Languages:      []string{"eng"},
			TimeoutSeconds: defaultOCRTimeout,
		},
		Embedding: Embedding{
			Model:          defaultEmbeddingModel,
			TimeoutSeconds: defaultEmbeddingTimeout,
		},
		Pipeline: Pipeline{
			SimilarityThreshold: defaultSimilarityThresh,
		},
		Scheduler: Scheduler{
			CaptureInterval:    defaultCaptureInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
