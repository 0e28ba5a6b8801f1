package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "cache:"
	generationSuffix = ":gen"
)

// Cache stores JSON values in Redis. Each namespace carries a generation
// counter that is part of every key, so bumping it invalidates the whole
// namespace without scanning for keys.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetJSON loads key into dst. The boolean is false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	return true, nil
}

// SetJSON stores v under key for ttl
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Generation returns the current generation of namespace, 0 if never bumped
func (c *Cache) Generation(ctx context.Context, namespace string) (int64, error) {
	gen, err := c.client.Get(ctx, keyPrefix+namespace+generationSuffix).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Invalidate bumps the generation of namespace
func (c *Cache) Invalidate(ctx context.Context, namespace string) error {
	if err := c.client.Incr(ctx, keyPrefix+namespace+generationSuffix).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// Key builds a cache key from namespace, generation and query parameters.
// Parameters are sorted so equivalent queries share a key.
func Key(namespace string, generation int64, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		values := append([]string(nil), params[k]...)
		sort.Strings(values)
		for _, v := range values {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
			b.WriteByte('&')
		}
	}

	sum := md5.Sum([]byte(b.String()))
	return keyPrefix + namespace + ":" + strconv.FormatInt(generation, 10) + ":" + hex.EncodeToString(sum[:])
}
