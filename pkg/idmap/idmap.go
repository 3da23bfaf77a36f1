// Package idmap maps DMR radio IDs to display names. It is grounded on the
// reference dmr_idmap (a red-black tree keyed by ID, with a process-wide
// singleton accessor), realized here as a mutex-guarded ordered map whose
// ordering is insertion order rather than key order -- callers needing
// key-sorted iteration can sort Entries() themselves. An optional SQLite
// cache (via gorm.io/gorm, the teacher's persistence stack) can seed the
// map from stored bindings (Store.LoadInto) and record new ones
// (Store.Upsert); nothing here downloads or refreshes a radio-ID database.
// The in-memory map is always authoritative and is never blocked on by
// burst decode.
package idmap

import "sync"

// Entry is one radio-ID to display-name binding.
type Entry struct {
	ID   uint32
	Name string
}

// Map is a thread-safe, insertion-ordered radio-ID to display-name map.
type Map struct {
	mu    sync.RWMutex
	names map[uint32]string
	order []uint32
}

// New returns an empty map.
func New() *Map {
	return &Map{names: make(map[uint32]string)}
}

// Add inserts or updates the name bound to id.
func (m *Map) Add(id uint32, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.names[id]; !exists {
		m.order = append(m.order, id)
	}
	m.names[id] = name
}

// Get returns the name bound to id and whether it was found.
func (m *Map) Get(id uint32) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[id]
	return name, ok
}

// Size returns the number of bindings in the map.
func (m *Map) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

// Entries returns a snapshot of all bindings in insertion order.
func (m *Map) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, Entry{ID: id, Name: m.names[id]})
	}
	return out
}

var (
	globalMu  sync.Mutex
	globalMap *Map
)

// InitGlobal initializes the process-wide shared map, the Go analogue of
// dmr_id_init().
func InitGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMap = New()
}

// AddGlobal adds a binding to the shared map, the Go analogue of
// dmr_id_add().
func AddGlobal(id uint32, name string) {
	globalMu.Lock()
	m := globalMap
	globalMu.Unlock()
	if m == nil {
		return
	}
	m.Add(id, name)
}

// GlobalName looks up a name in the shared map, the Go analogue of
// dmr_id_name().
func GlobalName(id uint32) (string, bool) {
	globalMu.Lock()
	m := globalMap
	globalMu.Unlock()
	if m == nil {
		return "", false
	}
	return m.Get(id)
}

// GlobalSize reports the shared map's size, the Go analogue of
// dmr_id_size().
func GlobalSize() int {
	globalMu.Lock()
	m := globalMap
	globalMu.Unlock()
	if m == nil {
		return 0
	}
	return m.Size()
}
