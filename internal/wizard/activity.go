package wizard

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxLogEntries caps the activity log when no limit is configured.
const DefaultMaxLogEntries = 100

// Level classifies an activity entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// LogEntry is one line of the user-visible activity log.
type LogEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Level     Level     `json:"level" yaml:"level"`
	Step      StepID    `json:"step,omitempty" yaml:"step,omitempty"`
	Message   string    `json:"message" yaml:"message"`
}

// ActivityLog records controller activity, newest first, dropping the
// oldest entries once full.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []LogEntry
	maxSize int
	now     func() time.Time
}

// NewActivityLog creates a log holding at most maxSize entries.
func NewActivityLog(maxSize int) *ActivityLog {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogEntries
	}
	return &ActivityLog{maxSize: maxSize, now: time.Now}
}

// Add prepends an entry and returns it.
func (l *ActivityLog) Add(level Level, step StepID, message string) LogEntry {
	e := LogEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Level:     level,
		Step:      step,
		Message:   message,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]LogEntry{e}, l.entries...)
	if len(l.entries) > l.maxSize {
		l.entries = l.entries[:l.maxSize]
	}
	return e
}

// Entries returns a copy of the log, newest first.
func (l *ActivityLog) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LogEntry(nil), l.entries...)
}

// Recent returns at most n entries, newest first.
func (l *ActivityLog) Recent(n int) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n = min(max(n, 0), len(l.entries))
	return append([]LogEntry(nil), l.entries[:n]...)
}

// Len returns the number of entries.
func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Cap returns the configured maximum.
func (l *ActivityLog) Cap() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.maxSize
}

// SetCap changes the maximum, trimming the oldest entries if needed.
func (l *ActivityLog) SetCap(maxSize int) {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogEntries
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = maxSize
	if len(l.entries) > maxSize {
		l.entries = l.entries[:maxSize]
	}
}

func (l *ActivityLog) clone() *ActivityLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &ActivityLog{
		entries: append([]LogEntry(nil), l.entries...),
		maxSize: l.maxSize,
		now:     l.now,
	}
}

// MarshalJSON encodes the entries only.
func (l *ActivityLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// UnmarshalJSON restores entries; the capacity is applied later by Normalize.
func (l *ActivityLog) UnmarshalJSON(data []byte) error {
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	if l.maxSize <= 0 {
		l.maxSize = max(DefaultMaxLogEntries, len(entries))
	}
	if l.now == nil {
		l.now = time.Now
	}
	return nil
}

// MarshalYAML encodes the entries only.
func (l *ActivityLog) MarshalYAML() (any, error) {
	return l.Entries(), nil
}
