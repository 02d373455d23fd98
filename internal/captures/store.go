package captures

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"glimpse/internal/config"
)

// Store manages capture persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS capture_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	captured_at TEXT NOT NULL,
	image_path TEXT NOT NULL,
	extracted_text TEXT
);
CREATE INDEX IF NOT EXISTS idx_capture_records_session ON capture_records(session_id);
`

// Open initializes or connects to the captures database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "captures.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add persists an accepted capture and returns the stored record.
func (s *Store) Add(ctx context.Context, sessionID, imagePath, extractedText string, capturedAt time.Time) (*Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id required")
	}
	if strings.TrimSpace(imagePath) == "" {
		return nil, errors.New("image path required")
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO capture_records (session_id, captured_at, image_path, extracted_text) VALUES (?, ?, ?, ?)`,
		sessionID,
		capturedAt.UTC().Format(time.RFC3339Nano),
		imagePath,
		nullableString(extractedText),
	)
	if err != nil {
		return nil, fmt.Errorf("insert capture record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("capture record id: %w", err)
	}

	return &Record{
		ID:            id,
		SessionID:     sessionID,
		CapturedAt:    capturedAt.UTC(),
		ImagePath:     imagePath,
		ExtractedText: extractedText,
	}, nil
}

const recordColumns = "id, session_id, captured_at, image_path, extracted_text"

// BySession returns all captures for the session, oldest first.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM capture_records WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query captures by session: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Recent returns the most recent captures across all sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM capture_records ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent captures: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Stats aggregates capture counts per session.
func (s *Store) Stats(ctx context.Context) ([]SessionStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*), MAX(captured_at) FROM capture_records GROUP BY session_id ORDER BY session_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query capture stats: %w", err)
	}
	defer rows.Close()

	var stats []SessionStats
	for rows.Next() {
		var (
			entry     SessionStats
			latestRaw sql.NullString
		)
		if err := rows.Scan(&entry.SessionID, &entry.Count, &latestRaw); err != nil {
			return nil, fmt.Errorf("scan capture stats: %w", err)
		}
		if latest, err := parseTimeString(latestRaw.String); err == nil {
			entry.Latest = latest
		}
		stats = append(stats, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capture stats: %w", err)
	}
	return stats, nil
}

// ClearSession deletes all records for the session and returns the count.
func (s *Store) ClearSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM capture_records WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clear session captures: %w", err)
	}
	return res.RowsAffected()
}

// CheckHealth inspects the database file, schema, and integrity.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("captures database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat captures database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("captures database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("captures database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping captures database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'capture_records'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		colsRows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(capture_records)")
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("table info: %w", err)
		}
		defer colsRows.Close()

		var columns []string
		for colsRows.Next() {
			var (
				cid     int
				name    string
				typeStr string
				notNull int
				dflt    any
				pk      int
			)
			if err := colsRows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
				health.Error = err.Error()
				return health, fmt.Errorf("scan table info: %w", err)
			}
			columns = append(columns, name)
		}
		if err := colsRows.Err(); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("iterate table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, columns...)

		expected := []string{"id", "session_id", "captured_at", "image_path", "extracted_text"}
		missingMap := make(map[string]struct{}, len(expected))
		for _, col := range expected {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM capture_records")
		if err := row.Scan(&health.TotalRecords); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count capture records: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan capture record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capture records: %w", err)
	}
	return records, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id          int64
		sessionID   string
		capturedRaw sql.NullString
		imagePath   string
		text        sql.NullString
	)
	if err := scanner.Scan(&id, &sessionID, &capturedRaw, &imagePath, &text); err != nil {
		return nil, err
	}
	record := &Record{
		ID:            id,
		SessionID:     sessionID,
		ImagePath:     imagePath,
		ExtractedText: text.String,
	}
	if captured, err := parseTimeString(capturedRaw.String); err == nil {
		record.CapturedAt = captured
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
