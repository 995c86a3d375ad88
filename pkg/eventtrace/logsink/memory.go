package logsink

import (
	"strings"
	"sync"
)

// Entry is one captured log line.
type Entry struct {
	Severity Severity
	Tag      string
	Message  string
	Cause    error
}

// Memory stores lines in memory for tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty memory sink.
func NewMemory() *Memory { return &Memory{} }

// Log implements Sink.
func (m *Memory) Log(sev Severity, tag, msg string, cause error) {
	m.mu.Lock()
	m.entries = append(m.entries, Entry{Severity: sev, Tag: tag, Message: msg, Cause: cause})
	m.mu.Unlock()
}

// Entries returns a copy of the captured lines in write order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Matching returns the captured lines at sev whose message contains substr.
func (m *Memory) Matching(sev Severity, substr string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Severity == sev && strings.Contains(e.Message, substr) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of captured lines at sev.
func (m *Memory) Count(sev Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// Reset drops all captured lines.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}
