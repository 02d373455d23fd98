package pipeline

import "strings"

// Session tracks the dedup state for one capture session. A session is owned
// by a single goroutine, so its fields are not synchronized.
type Session struct {
	ID        string
	OutputDir string

	lastEmbedding []float64
	accepted      int
	processed     int
}

// NewSession constructs session state for the given identifier. outputDir is
// where accepted images are filed; empty means the configured images
// directory.
func NewSession(id, outputDir string) *Session {
	return &Session{
		ID:        strings.TrimSpace(id),
		OutputDir: strings.TrimSpace(outputDir),
	}
}

// Accepted reports how many captures this session has kept.
func (s *Session) Accepted() int {
	return s.accepted
}

// Processed reports how many captures this session has attempted.
func (s *Session) Processed() int {
	return s.processed
}

// HasBaseline reports whether an accepted embedding exists to compare against.
func (s *Session) HasBaseline() bool {
	return len(s.lastEmbedding) > 0
}
