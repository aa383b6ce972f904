package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// ConnectFunc establishes a connection pool for one tenant database.
type ConnectFunc func(ctx context.Context, creds TargetCredentials) (*pgxpool.Pool, error)

// DefaultConnectTimeout bounds a single tenant connection attempt. A
// target that never answers is treated as a connection failure rather
// than blocking the cache slot forever.
const DefaultConnectTimeout = 10 * time.Second

// Connector returns a ConnectFunc that dials tenant databases with the
// given pool size and connect timeout. The pool is pinged before being
// handed out so that unreachable hosts, rejected credentials, and
// missing databases all surface as a connection error up front.
func Connector(maxConns int32, timeout time.Duration) ConnectFunc {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return func(ctx context.Context, creds TargetCredentials) (*pgxpool.Pool, error) {
		cfg, err := pgxpool.ParseConfig(creds.ConnString())
		if err != nil {
			return nil, fmt.Errorf("parse tenant connection config: %w", err)
		}
		cfg.MaxConns = maxConns
		cfg.ConnConfig.ConnectTimeout = timeout

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create tenant pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping tenant database: %w", err)
		}
		return pool, nil
	}
}

// PoolCache maps a tenant key to a live, reusable connection pool. It
// guarantees that at most one pool is ever created per distinct key,
// even under concurrent first requests: creation is single-flighted,
// all concurrent callers for a key observe the same eventual pool or
// the same eventual failure. A failed attempt leaves nothing cached, so
// the next request for that key gets a fresh attempt.
//
// Cached pools live until Close or CloseAll; there is no idle eviction.
// The cache is the sole owner of its pools.
type PoolCache struct {
	connect ConnectFunc

	mu    sync.RWMutex
	pools map[string]*pgxpool.Pool
	group singleflight.Group
}

// NewPoolCache creates an empty cache that dials through connect.
func NewPoolCache(connect ConnectFunc) *PoolCache {
	return &PoolCache{
		connect: connect,
		pools:   make(map[string]*pgxpool.Pool),
	}
}

// Get returns the cached pool for the credentials' tenant key, creating
// it on first use. Concurrent callers for the same key share a single
// connection attempt.
func (c *PoolCache) Get(ctx context.Context, creds TargetCredentials) (*pgxpool.Pool, error) {
	key := creds.Key()

	c.mu.RLock()
	pool, ok := c.pools[key]
	c.mu.RUnlock()
	if ok {
		return pool, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have finished while we queued.
		c.mu.RLock()
		pool, ok := c.pools[key]
		c.mu.RUnlock()
		if ok {
			return pool, nil
		}

		// The connection attempt runs detached from the first request's
		// context so that its cancellation cannot fail every waiter.
		pool, err := c.connect(context.WithoutCancel(ctx), creds)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pools[key] = pool
		c.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// Close removes the pool for the given tenant key from the cache and
// then closes it. The entry is removed first so no concurrent Get can
// observe a half-closed pool as cached.
func (c *PoolCache) Close(key string) {
	c.mu.Lock()
	pool, ok := c.pools[key]
	delete(c.pools, key)
	c.mu.Unlock()

	if ok {
		pool.Close()
	}
}

// CloseAll drains the cache and closes every pool. Used at shutdown.
func (c *PoolCache) CloseAll() {
	c.mu.Lock()
	pools := c.pools
	c.pools = make(map[string]*pgxpool.Pool)
	c.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}

// Len returns the number of cached pools.
func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}

// Keys returns the tenant keys currently cached, for diagnostics.
func (c *PoolCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.pools))
	for k := range c.pools {
		keys = append(keys, k)
	}
	return keys
}
