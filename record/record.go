// Package record provides durable, site-wide named records used to persist
// the domain index between units of work.
package record

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Record is a durable key/value configuration store.
type Record interface {
	// Read decodes the record called name into dst. It reports false,
	// leaving dst untouched, when the record does not exist.
	Read(ctx context.Context, name string, dst any) (bool, error)

	// Write creates the record or overwrites it.
	Write(ctx context.Context, name string, v any) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, name string) error
}

// MemoryRecord keeps records in process memory. Useful for tests and for
// single-process deployments that do not need the index to survive restarts.
type MemoryRecord struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryRecord creates an empty MemoryRecord.
func NewMemoryRecord() *MemoryRecord {
	return &MemoryRecord{data: make(map[string][]byte)}
}

// Read implements Record.
func (m *MemoryRecord) Read(_ context.Context, name string, dst any) (bool, error) {
	m.mu.RLock()
	data, ok := m.data[name]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decoding record %q: %w", name, err)
	}
	return true, nil
}

// Write implements Record.
func (m *MemoryRecord) Write(_ context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = data
	return nil
}

// Delete implements Record.
func (m *MemoryRecord) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// Has reports whether a record called name exists.
func (m *MemoryRecord) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[name]
	return ok
}

var _ Record = (*MemoryRecord)(nil)
