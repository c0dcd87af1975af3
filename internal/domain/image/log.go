package image

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogEntry is one full request/response cycle of the image tool.
// Entries are appended whether or not an image was found, so failed
// generations stay diagnosable.
type LogEntry struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Model      string          `json:"model"`
	Message    string          `json:"message"`
	SaveTarget string          `json:"save_target"`
	Request    json.RawMessage `json:"request"`
	Response   json.RawMessage `json:"response"`
	HTTPStatus int             `json:"http_status"`
}

// RequestLog appends entries to a per-day JSON array file under dir:
// image_generation_<YYYY-MM-DD>.json. The whole file is read, extended, and
// rewritten on each append. The mutex serializes appends within this process
// only; concurrent processes can still lose updates to each other.
type RequestLog struct {
	dir string
	mu  sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewRequestLog creates a RequestLog writing under dir.
func NewRequestLog(dir string) *RequestLog {
	return &RequestLog{dir: dir, now: time.Now}
}

// Append adds one entry to today's log file. ID and Timestamp are filled in
// when zero. A log file that cannot be parsed (e.g. truncated by a crashed
// write) is treated as empty and overwritten.
func (l *RequestLog) Append(entry LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("image log: generate id: %w", err)
		}
		entry.ID = id.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("image log: create directory %q: %w", l.dir, err)
	}

	path := l.pathFor(entry.Timestamp)
	entries := l.readAll(path)
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("image log: encode entries: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("image log: write %q: %w", path, err)
	}
	return nil
}

// Today returns the entries of the day file for t, empty if none exist.
func (l *RequestLog) Today(t time.Time) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll(l.pathFor(t.UTC()))
}

func (l *RequestLog) pathFor(t time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("image_generation_%s.json", t.Format("2006-01-02")))
}

func (l *RequestLog) readAll(path string) []LogEntry {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []LogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

// RawOrQuoted returns body unchanged when it is valid JSON, otherwise the
// body quoted as a JSON string. Upstreams occasionally answer with HTML
// error pages; those must not corrupt the log file.
func RawOrQuoted(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}
