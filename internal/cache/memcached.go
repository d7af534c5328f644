package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/watchface-status/internal/models"
)

const (
	keyPrefix = "watchface:weather:"
	// maxRelativeExp is memcached's limit for relative expirations (30 days).
	maxRelativeExp = 30 * 24 * 60 * 60
)

// MemcachedCache stores JSON-encoded weather messages in memcached.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated
// server list; empty means localhost:11211. Zero timeout or maxIdleConns
// keep the client defaults.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) *MemcachedCache {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Get returns (zero, false, nil) on a miss.
func (c *MemcachedCache) Get(ctx context.Context, key string) (models.WeatherMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.WeatherMessage{}, false, err
	}
	item, err := c.client.Get(keyPrefix + key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return models.WeatherMessage{}, false, nil
	}
	if err != nil {
		return models.WeatherMessage{}, false, err
	}
	var msg models.WeatherMessage
	if err := json.Unmarshal(item.Value, &msg); err != nil {
		return models.WeatherMessage{}, false, err
	}
	return msg, true, nil
}

func (c *MemcachedCache) Set(ctx context.Context, key string, value models.WeatherMessage, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        keyPrefix + key,
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	})
}

// expirationSeconds clamps ttl to memcached's relative range, falling back to one hour.
func expirationSeconds(ttl time.Duration) int32 {
	sec := int64(ttl / time.Second)
	if sec <= 0 || sec > maxRelativeExp {
		return 3600
	}
	return int32(sec)
}

// Ping checks that memcached is reachable.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
