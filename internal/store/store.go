// Package store keeps an optional log of the conversation.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	BackendText   = "text"
	BackendSQLite = "sqlite"

	timeFormat = "2006-01-02 15:04:05"
)

type Message struct {
	Role    string
	Content string
	Time    time.Time
}

// Log records conversation messages for one process run.
type Log interface {
	Append(msg Message) error
	Session() string
	Close() error
}

// Open creates the log for backend at path. Each call starts a new session.
func Open(backend, path string) (Log, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	session := uuid.NewString()
	switch backend {
	case "", BackendText:
		return NewFileLog(path, session)
	case BackendSQLite:
		return NewSQLiteLog(path, session)
	}
	return nil, fmt.Errorf("unknown log backend %q (valid: %s, %s)", backend, BackendText, BackendSQLite)
}

// FileLog appends a readable transcript to a text file.
type FileLog struct {
	mu      sync.Mutex
	f       *os.File
	session string
}

func NewFileLog(path, session string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := &FileLog{f: f, session: session}
	if _, err := fmt.Fprintf(f, "--- session %s started %s ---\n\n", session, time.Now().Format(timeFormat)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write log header: %w", err)
	}
	return l, nil
}

func (l *FileLog) Append(msg Message) error {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.f, "[%s] %s:\n%s\n\n", msg.Time.Format(timeFormat), msg.Role, strings.TrimRight(msg.Content, "\n"))
	return err
}

func (l *FileLog) Session() string { return l.session }

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
