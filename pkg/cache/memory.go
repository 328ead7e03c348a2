package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	value    string
	expireAt time.Time
}

func (m memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryCache implements Service with an in-process map and lazy expiry.
// Values are stored JSON-encoded so Get behaves identically to the Redis
// backend.
type MemoryCache struct {
	mu      sync.RWMutex
	data    map[string]memoryItem
	maxSize int
}

// NewMemoryCache creates an in-memory cache bounded to maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{
		data:    make(map[string]memoryItem),
		maxSize: maxSize,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	var expireAt time.Time
	if expiration > 0 {
		expireAt = time.Now().Add(expiration)
	}

	mc.mu.Lock()
	if len(mc.data) >= mc.maxSize {
		mc.evictOne()
	}
	mc.data[key] = memoryItem{value: data, expireAt: expireAt}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.RLock()
	item, ok := mc.data[key]
	mc.mu.RUnlock()

	if !ok || item.expired() {
		if ok {
			mc.mu.Lock()
			delete(mc.data, key)
			mc.mu.Unlock()
		}
		return ErrCacheMiss
	}
	return decode(item.value, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, key := range keys {
		delete(mc.data, key)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	for _, key := range keys {
		if item, ok := mc.data[key]; ok && !item.expired() {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Close() error { return nil }

// evictOne drops the entry closest to expiry. Caller holds the write lock.
func (mc *MemoryCache) evictOne() {
	var victim string
	var victimExp time.Time
	first := true
	for key, item := range mc.data {
		if item.expired() {
			delete(mc.data, key)
			return
		}
		if first || (!item.expireAt.IsZero() && item.expireAt.Before(victimExp)) {
			victim = key
			victimExp = item.expireAt
			first = false
		}
	}
	if victim != "" {
		delete(mc.data, victim)
	}
}

func encode(value interface{}) (string, error) {
	switch s := value.(type) {
	case string:
		return s, nil
	case *string:
		return *s, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(data string, dest interface{}) error {
	if s, ok := dest.(*string); ok {
		*s = data
		return nil
	}
	return json.Unmarshal([]byte(data), dest)
}
