package clock

import (
	"sync"
	"time"
)

// Mock is a Clock that returns a controllable time. The zero value starts at
// the zero time; use Set to move it.
type Mock struct {
	mu sync.Mutex
	t  time.Time
}

// NewMock returns a Mock pinned to the given time.
func NewMock(t time.Time) *Mock {
	return &Mock{t: t}
}

// Now returns the mocked time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// Set moves the mocked time.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
}
