package pipeline

import "sync"

// MemoryArchive collects entries in memory.
type MemoryArchive struct {
	mu      sync.Mutex
	entries []Entry
}

// Append stores a copy of data under name.
func (m *MemoryArchive) Append(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Name: name, Data: append([]byte(nil), data...)})
	return nil
}

// Entries returns the entries in append order.
func (m *MemoryArchive) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Names returns the entry names in append order.
func (m *MemoryArchive) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	return names
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(line string)

// Log calls f(line).
func (f ProgressFunc) Log(line string) { f(line) }
