package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process LRU cache with per-entry TTL. When the cache
// is full the least recently used entry is evicted. Safe for concurrent
// use; a race between two writers for the same key degrades to redundant
// upstream work, never corruption.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	entries    map[string]*list.Element
	now        func() time.Time
}

type memoryEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory cache holding at most maxEntries items.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Memory{
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get implements Cache.
func (m *Memory) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	el, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return false, nil
	}

	entry := el.Value.(*memoryEntry)
	if m.now().After(entry.expiresAt) {
		m.removeElement(el)
		m.mu.Unlock()
		return false, nil
	}

	m.ll.MoveToFront(el)
	data := entry.data
	m.mu.Unlock()

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set implements Cache.
func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.data = data
		entry.expiresAt = m.now().Add(ttl)
		m.ll.MoveToFront(el)
		return nil
	}

	el := m.ll.PushFront(&memoryEntry{
		key:       key,
		data:      data,
		expiresAt: m.now().Add(ttl),
	})
	m.entries[key] = el

	for m.ll.Len() > m.maxEntries {
		m.removeElement(m.ll.Back())
	}
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		m.removeElement(el)
	}
	return nil
}

// Len returns the current number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

// removeElement must be called with the lock held.
func (m *Memory) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	entry := el.Value.(*memoryEntry)
	delete(m.entries, entry.key)
	m.ll.Remove(el)
}
