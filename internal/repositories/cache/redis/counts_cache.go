// Package redis caches traceability counts in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
)

const keyPrefix = "chain:counts:"

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CountsCache stores traceability counts as JSON under chain:counts:{transactionID}.
type CountsCache struct {
	rdb    goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
	closer func() error
}

var _ portsrepo.ChainCountsCache = (*CountsCache)(nil)

// NewCountsCache connects to Redis and pings it.
func NewCountsCache(ctx context.Context, opts Options, logger *slog.Logger) (*CountsCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	cache := NewCountsCacheWithClient(rdb, opts.TTL, logger)
	cache.closer = rdb.Close
	return cache, nil
}

// NewCountsCacheWithClient wraps an existing client.
func NewCountsCacheWithClient(rdb goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *CountsCache {
	return &CountsCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("service", "RedisCountsCache"),
	}
}

func countsKey(transactionID string) string {
	return keyPrefix + transactionID
}

func (c *CountsCache) GetCounts(ctx context.Context, transactionID string) (domain.TraceabilityCounts, bool, error) {
	raw, err := c.rdb.Get(ctx, countsKey(transactionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	counts, err := decodeCounts(raw)
	if err != nil {
		c.logger.Warn("Discarding undecodable cached counts",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()))
		return nil, false, nil
	}
	return counts, true, nil
}

func (c *CountsCache) SetCounts(ctx context.Context, transactionID string, counts domain.TraceabilityCounts) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, countsKey(transactionID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the connection when the cache owns it.
func (c *CountsCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// decodeCounts parses a cached tally, filling in absent grades and
// rejecting unknown ones.
func decodeCounts(raw []byte) (domain.TraceabilityCounts, error) {
	var decoded map[domain.Traceability]int
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	counts := domain.NewTraceabilityCounts()
	for grade, n := range decoded {
		if !grade.IsValid() {
			return nil, fmt.Errorf("unknown traceability grade %q", grade)
		}
		counts.Add(grade, n)
	}
	return counts, nil
}
