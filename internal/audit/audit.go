// Package audit persists one JSON object per mutating request to an
// append-only newline-delimited file and supports a bounded read-back.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/pdns-gateway/internal/errors"
)

// UnauthorizedEnvironment labels audit entries for requests that failed
// authentication, where no environment could be resolved.
const UnauthorizedEnvironment = "UNAUTHORIZED"

// Entry is one audit record.
type Entry struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Environment string          `json:"environment"`
	Method      string          `json:"method"`
	Path        string          `json:"path"`
	Payload     json.RawMessage `json:"payload"`
	StatusCode  int             `json:"status_code"`
}

// Filter narrows a read-back. Zero values match everything.
type Filter struct {
	Environment string
	Method      string
	StatusCode  int
}

func (f Filter) matches(e Entry) bool {
	if f.Environment != "" && f.Environment != e.Environment {
		return false
	}
	if f.Method != "" && !strings.EqualFold(f.Method, e.Method) {
		return false
	}
	if f.StatusCode != 0 && f.StatusCode != e.StatusCode {
		return false
	}
	return true
}

// Logger appends audit entries to a file. Each entry is written as one line
// under a mutex so that concurrent requests never interleave partial records.
type Logger struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewLogger opens (or creates) the audit file in append mode.
func NewLogger(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open audit log")
	}
	return &Logger{path: path, file: file}, nil
}

// Log appends one entry for a request handled under a resolved environment.
func (l *Logger) Log(environment, method, path string, payload []byte, statusCode int) error {
	return l.append(Entry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Environment: environment,
		Method:      method,
		Path:        path,
		Payload:     normalizePayload(payload),
		StatusCode:  statusCode,
	})
}

// LogUnauthorized appends one entry for a request that failed authentication.
func (l *Logger) LogUnauthorized(method, path string, payload []byte, statusCode int) error {
	return l.Log(UnauthorizedEnvironment, method, path, payload, statusCode)
}

func (l *Logger) append(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode audit entry")
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return apperrors.Wrap(err, "failed to write audit entry")
	}
	return nil
}

// Read scans the audit file in append order and returns at most limit entries
// matching the filter. Lines that fail to parse are skipped.
func (l *Logger) Read(filter Filter, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, apperrors.Wrap(err, "failed to open audit log")
	}
	defer file.Close()

	entries := make([]Entry, 0, limit)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !filter.matches(entry) {
			continue
		}
		entries = append(entries, entry)
		if len(entries) == limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read audit log")
	}
	return entries, nil
}

// Close releases the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// normalizePayload keeps valid JSON payloads as-is and wraps everything else
// so that each audit line stays a valid JSON object.
func normalizePayload(payload []byte) json.RawMessage {
	if len(payload) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(payload) {
		return json.RawMessage(payload)
	}
	quoted, err := json.Marshal(string(payload))
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(quoted)
}
