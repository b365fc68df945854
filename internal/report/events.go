package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventList     EventType = "list"
	EventWalk     EventType = "walk"
	EventSkip     EventType = "skip"
	EventEpisode  EventType = "episode"
	EventNew      EventType = "new"
	EventMetadata EventType = "metadata"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event during a scan or metadata run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Path      string            `json:"path,omitempty"`
	ShowPath  string            `json:"show_path,omitempty"`
	Lang      string            `json:"lang,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// NullLogger returns a logger that silently drops all events
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Path returns the path of the event log file, or "" for a null logger
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogWalk logs the start of an actual directory walk
func (l *EventLogger) LogWalk(showPath, fingerprint string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventWalk,
		ShowPath: showPath,
		Extra: map[string]string{
			"fingerprint": fingerprint,
		},
	})
}

// LogSkip logs a directory skipped by the scan cache or the skip list
func (l *EventLogger) LogSkip(showPath, reason string) error {
	return l.Log(&Event{
		Level:    LevelDebug,
		Event:    EventSkip,
		ShowPath: showPath,
		Reason:   reason,
	})
}

// LogEpisode logs one classified episode; isNew raises the level
func (l *EventLogger) LogEpisode(path, showPath, lang string, isNew bool) error {
	event := EventEpisode
	level := LevelDebug
	if isNew {
		event = EventNew
		level = LevelInfo
	}
	return l.Log(&Event{
		Level:    level,
		Event:    event,
		Path:     path,
		ShowPath: showPath,
		Lang:     lang,
	})
}

// LogFetchError logs a non-fatal listing failure
func (l *EventLogger) LogFetchError(path string, err error) error {
	return l.Log(&Event{
		Level: LevelWarning,
		Event: EventError,
		Path:  path,
		Error: err.Error(),
	})
}

// LogMetadata logs an enrichment fetch outcome
func (l *EventLogger) LogMetadata(showPath, title string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventMetadata,
		ShowPath: showPath,
		Error:    errMsg,
		Extra: map[string]string{
			"title": title,
		},
	})
}
