// Package cache keeps finished analyses in Redis so they can be re-read by id.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const (
	DefaultPrefix = "credscan:analysis:"
	DefaultTTL    = time.Hour
)

type ResultCache struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.ResultCache = (*ResultCache)(nil)

// New returns a cache over client. Empty prefix and non-positive ttl take defaults.
func New(client goredis.UniversalClient, prefix string, ttl time.Duration) *ResultCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ResultCache) key(id string) string { return c.prefix + id }

func (c *ResultCache) Put(ctx context.Context, result domain.AnalysisResult) error {
	if result.ID == "" {
		return errors.New("cache: result has no id")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", result.ID, err)
	}
	if err := c.client.Set(ctx, c.key(result.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", result.ID, err)
	}
	return nil
}

// Get reports found=false on a miss, without error.
func (c *ResultCache) Get(ctx context.Context, id string) (domain.AnalysisResult, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.AnalysisResult{}, false, nil
	}
	if err != nil {
		return domain.AnalysisResult{}, false, fmt.Errorf("cache: get %s: %w", id, err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.AnalysisResult{}, false, fmt.Errorf("cache: decode %s: %w", id, err)
	}
	return result, true, nil
}

// Ping checks connectivity at startup.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
