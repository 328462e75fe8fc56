package assistant

import (
	"context"
	"sync"
)

// ThreadCache maps conversation subject keys to thread IDs so repeated
// interactions with the same subject reuse one thread.
type ThreadCache interface {
	Get(ctx context.Context, subject string) (string, bool, error)
	Set(ctx context.Context, subject, threadID string) error
}

// MemoryCache is the in-process thread cache. Entries live until the
// process exits; threads are never explicitly closed.
type MemoryCache struct {
	mu      sync.Mutex
	threads map[string]string
}

// NewMemoryCache creates an empty in-memory thread cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{threads: make(map[string]string)}
}

// Get returns the cached thread ID for a subject.
func (c *MemoryCache) Get(_ context.Context, subject string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.threads[subject]
	return id, ok, nil
}

// Set stores the thread ID for a subject.
func (c *MemoryCache) Set(_ context.Context, subject, threadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads[subject] = threadID
	return nil
}
