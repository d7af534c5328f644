// Package cache holds the companion's recent OpenWeather results so that
// refresh requests arriving close together share one upstream call.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
)

// Cache stores weather messages by location key.
type Cache interface {
	Get(ctx context.Context, key string) (models.WeatherMessage, bool, error)
	Set(ctx context.Context, key string, value models.WeatherMessage, ttl time.Duration) error
}

// Key normalizes a location into a cache key.
func Key(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// InMemoryCache is a mutex-guarded map with per-entry expiry. Expired
// entries are removed on access.
type InMemoryCache struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	value     models.WeatherMessage
	expiresAt time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{data: make(map[string]entry), now: time.Now}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (models.WeatherMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		return models.WeatherMessage{}, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.data, key)
		return models.WeatherMessage{}, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl. A non-positive ttl removes the key.
func (c *InMemoryCache) Set(_ context.Context, key string, value models.WeatherMessage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		delete(c.data, key)
		return nil
	}
	c.data[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}
