package clock

import (
	"sync"
	"time"
)

// TimeSource provides wall time readings
type TimeSource interface {
	Now() time.Time
}

// SystemTimeSource reads the monotonic system clock
type SystemTimeSource struct{}

func (SystemTimeSource) Now() time.Time {
	return time.Now()
}

// MockTimeSource provides a controllable time source for testing
type MockTimeSource struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockTimeSource creates a mock starting at start
func NewMockTimeSource(start time.Time) *MockTimeSource {
	return &MockTimeSource{current: start}
}

func (m *MockTimeSource) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set jumps the mock to t
func (m *MockTimeSource) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the mock forward by d
func (m *MockTimeSource) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}
