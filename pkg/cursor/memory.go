package cursor

import "sync"

// MemoryStore is an in-memory Store for tests and for running without a
// medium. The zero value behaves like an absent cursor.
type MemoryStore struct {
	mu       sync.Mutex
	index    uint32
	present  bool
	readErr  error
	writeErr error
	writes   []uint32
}

// NewMemoryStore returns a store that already holds index.
func NewMemoryStore(index uint32) *MemoryStore {
	return &MemoryStore{index: index, present: true}
}

// ReadIndex implements Store.
func (m *MemoryStore) ReadIndex() (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	if !m.present {
		return 0, ErrNoCursor
	}
	return m.index, nil
}

// WriteIndex implements Store.
func (m *MemoryStore) WriteIndex(index uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.index = index
	m.present = true
	m.writes = append(m.writes, index)
	return nil
}

// FailReads makes subsequent reads return err (nil clears it).
func (m *MemoryStore) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// FailWrites makes subsequent writes return err (nil clears it).
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Writes returns every index successfully written, in order.
func (m *MemoryStore) Writes() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.writes...)
}

// Index returns the currently persisted index.
func (m *MemoryStore) Index() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}
