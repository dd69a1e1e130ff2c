// Package activity keeps the JSON log of every send attempt.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultFile is the log file name used when none is configured.
const DefaultFile = "sent_emails.json"

// NoCompany is recorded when the operator gave no company.
const NoCompany = "Not specified"

// Record is one send attempt.
type Record struct {
	ID               string    `json:"id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Recipient        string    `json:"recipient"`
	Company          string    `json:"company"`
	Subject          string    `json:"subject"`
	Success          bool      `json:"success"`
	Error            *string   `json:"error"`
	Bcc              string    `json:"bcc,omitempty"`
	Attachment       string    `json:"attachment,omitempty"`
	AttachmentSHA256 string    `json:"attachment_sha256,omitempty"`
	SubjectSource    string    `json:"subject_source,omitempty"`
}

// NewRecord stamps a record with an id and the current time. A nil err
// marks the attempt successful.
func NewRecord(recipient, company, subject string, err error) Record {
	company = strings.TrimSpace(company)
	if company == "" {
		company = NoCompany
	}
	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Truncate(time.Second),
		Recipient: recipient,
		Company:   company,
		Subject:   subject,
		Success:   err == nil,
	}
	if err != nil {
		msg := err.Error()
		rec.Error = &msg
	}
	return rec
}

// Failure returns the recorded error text, or "".
func (r Record) Failure() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Log is a JSON array of records on disk. Every Append reads the whole file
// and rewrites it.
type Log struct {
	path string
	mu   sync.Mutex
}

// Open returns the log at path. The file is created on first Append.
func Open(path string) *Log {
	if path == "" {
		path = DefaultFile
	}
	return &Log{path: path}
}

// Path returns the file location.
func (l *Log) Path() string {
	return l.path
}

// Append adds rec to the end of the log.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode activity log: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	log.Debug("Activity recorded", "file", l.path, "records", len(records))
	return nil
}

// Read returns every record, oldest first. A missing file yields no records.
func (l *Log) Read() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse activity log %s: %w", l.path, err)
	}
	return records, nil
}

// Recent returns at most n records, newest first.
func (l *Log) Recent(n int) ([]Record, error) {
	records, err := l.Read()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

// load reads the current records. A missing or corrupt file is treated as
// empty; any other read failure is returned so the file is left untouched.
func (l *Log) load() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn("Activity log is corrupt, starting a new one", "file", l.path, "error", err)
		return nil, nil
	}
	return records, nil
}
