package aiclient

import (
	"context"
	"sync"
	"time"

	"github.com/reeltalk/reeltalk/internal/models"
)

type cacheEntry struct {
	ids     []int64
	expires time.Time
}

// CachingClient wraps another Client with a TTL-based in-memory cache
// for the for-you feed, keyed by username. Video generation is never
// cached.
type CachingClient struct {
	base Client
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingClient returns a Client that caches for-you results for the
// provided TTL.
func NewCachingClient(base Client, ttl time.Duration) *CachingClient {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingClient{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// GenerateVideo delegates to the underlying client.
func (c *CachingClient) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return c.base.GenerateVideo(ctx, prompt)
}

// ForYouFeed returns the cached recommendation when available,
// otherwise it delegates to the underlying client and stores the
// result. Failures are not cached.
func (c *CachingClient) ForYouFeed(ctx context.Context, user models.User, videos []models.Video) ([]int64, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[user.Username]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return append([]int64(nil), entry.ids...), nil
	}

	ids, err := c.base.ForYouFeed(ctx, user, videos)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[user.Username] = cacheEntry{ids: ids, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return append([]int64(nil), ids...), nil
}

// Invalidate drops the cached recommendation for a user. Called after
// mutations that change the candidate set, like following someone.
func (c *CachingClient) Invalidate(username string) {
	c.mu.Lock()
	delete(c.items, username)
	c.mu.Unlock()
}

var _ Client = (*CachingClient)(nil)
