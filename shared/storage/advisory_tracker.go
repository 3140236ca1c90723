package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// AdvisoryTracker remembers which flyable days were already announced so a
// day is emailed once even though every run re-assesses it.
type AdvisoryTracker struct {
	filePath string
	notified map[string]time.Time
	mu       sync.RWMutex
	maxAge   time.Duration
	clock    clockwork.Clock
}

// NotifiedDay is one announced (location, date) pair.
type NotifiedDay struct {
	Location   string    `json:"location"`
	Date       string    `json:"date"`
	NotifiedAt time.Time `json:"notified_at"`
}

// NewAdvisoryTracker opens the tracker stored under dataDir.
func NewAdvisoryTracker(dataDir string, maxAge time.Duration) (*AdvisoryTracker, error) {
	return newAdvisoryTracker(dataDir, maxAge, clockwork.NewRealClock())
}

func newAdvisoryTracker(dataDir string, maxAge time.Duration, clock clockwork.Clock) (*AdvisoryTracker, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &AdvisoryTracker{
		filePath: filepath.Join(dataDir, "notified_days.json"),
		notified: make(map[string]time.Time),
		maxAge:   maxAge,
		clock:    clock,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load advisory tracker data: %w", err)
	}
	tracker.cleanup()

	return tracker, nil
}

func trackerKey(location, date string) string {
	return location + "|" + date
}

// IsNotified reports whether the day was announced within maxAge.
func (t *AdvisoryTracker) IsNotified(location, date string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	at, ok := t.notified[trackerKey(location, date)]
	if !ok {
		return false
	}
	return t.clock.Since(at) < t.maxAge
}

// MarkNotified records the given dates for location and persists the file.
func (t *AdvisoryTracker) MarkNotified(location string, dates ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	for _, d := range dates {
		t.notified[trackerKey(location, d)] = now
	}
	return t.save()
}

// Count returns the number of tracked days.
func (t *AdvisoryTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.notified)
}

func (t *AdvisoryTracker) cleanup() {
	cutoff := t.clock.Now().Add(-t.maxAge)
	for key, at := range t.notified {
		if at.Before(cutoff) {
			delete(t.notified, key)
		}
	}
}

func (t *AdvisoryTracker) load() error {
	file, err := os.Open(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open tracker file: %w", err)
	}
	defer file.Close()

	var days []NotifiedDay
	if err := json.NewDecoder(file).Decode(&days); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}
	for _, d := range days {
		t.notified[trackerKey(d.Location, d.Date)] = d.NotifiedAt
	}
	return nil
}

// save writes the whole set to a temp file and renames it into place.
func (t *AdvisoryTracker) save() error {
	days := make([]NotifiedDay, 0, len(t.notified))
	for key, at := range t.notified {
		loc, date := splitKey(key)
		days = append(days, NotifiedDay{Location: loc, Date: date, NotifiedAt: at})
	}

	tmp := t.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(days); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, t.filePath)
}

func splitKey(key string) (string, string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
