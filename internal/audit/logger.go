package audit

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry kinds.
const (
	KindPredict = "predict"
	KindTrain   = "train"
	KindUpload  = "upload"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
	Kind        string    `json:"kind"`
	URL         string    `json:"url,omitempty"`
	RiskScore   *int      `json:"risk_score,omitempty"`
	RiskLevel   string    `json:"risk_level,omitempty"`
	IsMalicious *bool     `json:"is_malicious,omitempty"`
	Signals     []string  `json:"signals,omitempty"`
	Kernel      string    `json:"kernel,omitempty"`
	C           *float64  `json:"C,omitempty"`
	Applied     *bool     `json:"applied,omitempty"`
	Metrics     any       `json:"metrics,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Size        int64     `json:"size,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Logger writes JSON-line audit log entries.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewLogger creates a new audit logger writing to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		writer: w,
		enc:    json.NewEncoder(w),
	}
}

// NewFileLogger creates a logger that appends to the file at path.
func NewFileLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	l := NewLogger(f)
	l.closer = f
	return l, nil
}

// NewStderrLogger creates a logger that writes to stderr.
func NewStderrLogger() *Logger {
	return NewLogger(os.Stderr)
}

// Log writes a single audit entry as a JSON line.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NopLogger returns a logger that discards all entries.
func NopLogger() *Logger {
	return NewLogger(io.Discard)
}

// Ptr returns a pointer to v, for the optional Entry fields.
func Ptr[T any](v T) *T {
	return &v
}
