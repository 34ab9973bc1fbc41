package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventHarvest EventType = "harvest"
	EventSkip    EventType = "skip"
	EventPage    EventType = "page"
	EventEnrich  EventType = "enrich"
	EventFilter  EventType = "filter"
	EventImport  EventType = "import"
	EventLink    EventType = "link"
	EventOutput  EventType = "output"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event is one line of the JSONL event log
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	SongID    string            `json:"song_id,omitempty"`
	URL       string            `json:"url,omitempty"`
	Tab       string            `json:"tab,omitempty"`
	Path      string            `json:"path,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Count     int               `json:"count,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil *EventLogger is valid
// and discards everything.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates events-<timestamp>.jsonl in outputDir.
// Events below minLevel are dropped.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("events-%s.jsonl", time.Now().Format("20060102-150405"))
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

// Log writes an event
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
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

// LogHarvest records one harvest pass over a tab
func (l *EventLogger) LogHarvest(tab string, page, newRecords int, skipped map[string]int) error {
	extra := map[string]string{"page": strconv.Itoa(page)}
	for reason, n := range skipped {
		extra["skipped_"+reason] = strconv.Itoa(n)
	}
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventHarvest,
		Tab:   tab,
		Count: newRecords,
		Extra: extra,
	})
}

// LogSkip records a fragment that produced no record
func (l *EventLogger) LogSkip(tab, url, reason string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventSkip,
		Tab:    tab,
		URL:    url,
		Reason: reason,
	})
}

// LogPage records a pagination decision
func (l *EventLogger) LogPage(tab string, page int, reason string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventPage,
		Tab:    tab,
		Reason: reason,
		Extra:  map[string]string{"page": strconv.Itoa(page)},
	})
}

// LogEnrich records one detail-page visit
func (l *EventLogger) LogEnrich(songID, url string, lyricsLen int, tier string, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventEnrich,
		SongID:   songID,
		URL:      url,
		Count:    lyricsLen,
		Reason:   tier,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogFilter records records removed by a filter
func (l *EventLogger) LogFilter(reason string, removed int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventFilter,
		Reason: reason,
		Count:  removed,
	})
}

// LogImport records a batch import into the catalog
func (l *EventLogger) LogImport(tab string, imported, offered int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level: level,
		Event: EventImport,
		Tab:   tab,
		Count: imported,
		Error: errMsg,
		Extra: map[string]string{"offered": strconv.Itoa(offered)},
	})
}

// LogLink records a local audio file attached to a song
func (l *EventLogger) LogLink(songID, path, matchedBy string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventLink,
		SongID: songID,
		Path:   path,
		Reason: matchedBy,
	})
}

// LogOutput records a written output file
func (l *EventLogger) LogOutput(format, path string, records int) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventOutput,
		Path:   path,
		Count:  records,
		Reason: format,
	})
}

// LogError records a failure tied to a URL or path
func (l *EventLogger) LogError(event EventType, target string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: event,
		URL:   target,
		Error: err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
