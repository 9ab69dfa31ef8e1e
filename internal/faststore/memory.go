package faststore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

type memItem struct {
	data      []byte
	expiresAt time.Time
}

func (it memItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// Memory is an in-process Store, used when no Redis URL is configured
// (local development only — state does not survive a restart and is not
// shared across processes, so single-flight and rate limiting degrade to
// single-process semantics).
type Memory struct {
	mu   sync.Mutex
	data map[string]memItem
	done chan struct{}
}

// NewMemory creates a Memory store and starts its background expiry sweep,
// stopped when ctx is done or Close is called.
func NewMemory(ctx context.Context) *Memory {
	m := &Memory{
		data: make(map[string]memItem),
		done: make(chan struct{}),
	}
	go m.cleanup(ctx)
	return m
}

func (m *Memory) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, v := range m.data {
				if v.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		case <-ctx.Done():
			return
		case <-m.done:
			return
		}
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if it.expired(time.Now()) {
		delete(m.data, key)
		return nil, false, nil
	}
	return it.data, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.data[key] = memItem{data: value, expiresAt: exp}
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.data[key]
	n := int64(0)
	if ok && !it.expired(time.Now()) {
		n, _ = strconv.ParseInt(string(it.data), 10, 64)
	}
	n++
	// Incrementing preserves any existing TTL; a fresh key has none until
	// Expire is called explicitly (mirrors Redis INCR semantics).
	exp := it.expiresAt
	if !ok || it.expired(time.Now()) {
		exp = time.Time{}
	}
	m.data[key] = memItem{data: []byte(strconv.FormatInt(n, 10)), expiresAt: exp}
	return n, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.data[key]
	if !ok {
		return nil
	}
	it.expiresAt = time.Now().Add(ttl)
	m.data[key] = it
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.data[key]; ok && !it.expired(time.Now()) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.data[key] = memItem{data: value, expiresAt: exp}
	return true, nil
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) Close() error {
	close(m.done)
	return nil
}

var _ Store = (*Memory)(nil)
