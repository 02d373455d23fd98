package captures

import "time"

// Record is one accepted screenshot: where the image landed and what text was
// read out of it.
type Record struct {
	ID            int64
	SessionID     string
	CapturedAt    time.Time
	ImagePath     string
	ExtractedText string
}

// SessionStats summarizes stored captures per session.
type SessionStats struct {
	SessionID string
	Count     int
	Latest    time.Time
}

// DatabaseHealth reports the condition of the captures database file.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	TotalRecords     int64
	IntegrityCheck   bool
	Error            string
}
