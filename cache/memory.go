package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/utils"
)

type memoryEntry struct {
	value   []byte
	expires time.Time // zero = never
}

// Memory is an in-process LRU cache backend with per-entry expiry.
type Memory struct {
	entries        *lru.Cache[string, memoryEntry]
	defaultTimeout time.Duration

	mu  sync.RWMutex
	now func() time.Time
}

// NewMemory creates a backend holding at most size entries.  defaultTimeout
// applies when Set receives config.BackendDefaultTimeout; 0 keeps entries
// until evicted.
func NewMemory(size int, defaultTimeout time.Duration) (*Memory, error) {
	if size <= 0 {
		size = 256
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, defaultTimeout: defaultTimeout, now: time.Now}, nil
}

// SetClock replaces the time source; used by tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) clock() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.clock().Before(e.expires) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return utils.CloneBytes(e.value), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, timeout time.Duration) error {
	e := memoryEntry{value: utils.CloneBytes(value)}
	if ttl := resolveTimeout(timeout, m.defaultTimeout); ttl > 0 {
		e.expires = m.clock().Add(ttl)
	}
	m.entries.Add(key, e)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int { return m.entries.Len() }

// resolveTimeout maps the sentinel to the backend default.  The result is 0
// for "no expiry" or a positive duration.
func resolveTimeout(timeout, backendDefault time.Duration) time.Duration {
	if timeout == config.BackendDefaultTimeout {
		timeout = backendDefault
	}
	if timeout < 0 {
		return 0
	}
	return timeout
}
