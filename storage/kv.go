package storage

import (
	"errors"
	"sync"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is a string-only key/value store in the shape of browser local storage
type KV interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// MemoryKV keeps items in process memory. A positive quota caps the total
// size of keys plus values in bytes.
type MemoryKV struct {
	mu    sync.Mutex
	items map[string]string
	quota int
	used  int
	reads int
}

// NewMemoryKV creates an empty store; quota <= 0 means unbounded
func NewMemoryKV(quota int) *MemoryKV {
	return &MemoryKV{items: make(map[string]string), quota: quota}
}

func (m *MemoryKV) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryKV) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if old, ok := m.items[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.items[key] = value
	m.used = used
	return nil
}

func (m *MemoryKV) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.items, key)
	}
	return nil
}

// Reads returns how many GetItem calls were served
func (m *MemoryKV) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
