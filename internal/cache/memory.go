// Package cache holds generated audio lessons keyed by document, lesson and
// language.
package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	audio     string
	expiresAt time.Time // zero means no expiry
}

// MemoryAudioCache keeps lessons in process memory. Entries are lost on
// restart.
type MemoryAudioCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryAudioCache(ttl time.Duration) *MemoryAudioCache {
	return &MemoryAudioCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryAudioCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false, nil
	}
	return e.audio, true, nil
}

func (c *MemoryAudioCache) Set(ctx context.Context, key, audioBase64 string) error {
	e := memoryEntry{audio: audioBase64}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryAudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
