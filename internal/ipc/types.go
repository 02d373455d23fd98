package ipc

import "time"

// SessionStartRequest begins a capture session.
type SessionStartRequest struct {
	SessionID       string `json:"session_id"`
	OutputDir       string `json:"output_dir"`
	IntervalSeconds int    `json:"interval_seconds"`
	DurationSeconds int    `json:"duration_seconds"`
}

// SessionStartResponse indicates whether the session was started.
type SessionStartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// SessionStopRequest stops a capture session.
type SessionStopRequest struct {
	SessionID string `json:"session_id"`
}

// SessionStopResponse indicates stop result.
type SessionStopResponse struct {
	Stopped bool `json:"stopped"`
}

// SessionsRequest lists active sessions.
type SessionsRequest struct{}

// SessionInfo describes one active capture session.
type SessionInfo struct {
	SessionID       string    `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	IntervalSeconds int       `json:"interval_seconds"`
	DurationSeconds int       `json:"duration_seconds"`
	ExpiresAt       time.Time `json:"expires_at"`
	Processed       int       `json:"processed"`
	Accepted        int       `json:"accepted"`
}

// SessionsResponse contains the active sessions.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running   bool          `json:"running"`
	StartedAt time.Time     `json:"started_at"`
	Sessions  []SessionInfo `json:"sessions"`
	DBPath    string        `json:"db_path"`
	LockPath  string        `json:"lock_path"`
	PID       int           `json:"pid"`
}

// IngestRequest runs an existing image through the dedup decision.
type IngestRequest struct {
	SessionID string `json:"session_id"`
	ImagePath string `json:"image_path"`
}

// IngestResponse reports the dedup outcome for the ingested image.
type IngestResponse struct {
	Accepted      bool    `json:"accepted"`
	DiscardReason string  `json:"discard_reason"`
	ImagePath     string  `json:"image_path"`
	Similarity    float64 `json:"similarity"`
	RecordID      int64   `json:"record_id"`
}

// CaptureRecord describes one stored capture.
type CaptureRecord struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	CapturedAt    time.Time `json:"captured_at"`
	ImagePath     string    `json:"image_path"`
	ExtractedText string    `json:"extracted_text"`
}

// RecordsListRequest fetches stored captures. A session id limits the listing
// to that session; otherwise the most recent captures are returned.
type RecordsListRequest struct {
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit"`
}

// RecordsListResponse contains stored captures.
type RecordsListResponse struct {
	Records []CaptureRecord `json:"records"`
}

// RecordsClearRequest removes all captures for a session.
type RecordsClearRequest struct {
	SessionID string `json:"session_id"`
}

// RecordsClearResponse reports number of removed captures.
type RecordsClearResponse struct {
	Removed int64 `json:"removed"`
}

// RecordsStatsRequest aggregates capture counts per session.
type RecordsStatsRequest struct{}

// SessionStats summarizes one session's stored captures.
type SessionStats struct {
	SessionID string    `json:"session_id"`
	Count     int       `json:"count"`
	Latest    time.Time `json:"latest"`
}

// RecordsStatsResponse contains per-session capture statistics.
type RecordsStatsResponse struct {
	Stats []SessionStats `json:"stats"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalRecords     int64    `json:"total_records"`
	Error            string   `json:"error"`
}
