package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Monitor tracks the outcome of the last scheduled run for the health
// endpoints. Partial failures are logged but leave the health state alone.
type Monitor struct {
	logger *slog.Logger

	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	partialCount   int
}

func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{logger: logger}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.logger.Info("run completed", "summary", summary, "duration", duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partialCount++
	m.mu.Unlock()

	m.logger.Warn("partial failure", "error", err, "duration", duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.logger.Error("critical failure", "error", err, "duration", duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

// PartialFailures returns how many partial failures were recorded since start.
func (m *Monitor) PartialFailures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.partialCount
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("Last run failed: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
