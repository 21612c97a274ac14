package status

import (
	"maps"
	"slices"
	"sync"
)

// MetricMap hands out stable pointers to metric cells of type T
// Lookup takes a lock; writers cache the pointer and update it lock-free
type MetricMap[T any] struct {
	mu    sync.RWMutex
	cells map[string]*T
}

// NewMetricMap creates an empty map
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{cells: make(map[string]*T)}
}

// Get returns the cell for key, allocating it on first use
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	cell, ok := m.cells[key]
	m.mu.RUnlock()
	if ok {
		return cell
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cell, ok := m.cells[key]; ok {
		return cell
	}
	cell = new(T)
	m.cells[key] = cell
	return cell
}

// Has reports whether key was ever requested
func (m *MetricMap[T]) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cells[key]
	return ok
}

// Keys returns the registered keys in sorted order
func (m *MetricMap[T]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.cells))
}

// Range visits every cell in key order
func (m *MetricMap[T]) Range(fn func(key string, cell *T)) {
	for _, k := range m.Keys() {
		fn(k, m.Get(k))
	}
}

// Count returns the number of cells
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}
