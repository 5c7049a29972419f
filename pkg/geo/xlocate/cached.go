package xlocate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/omeyang/xgeo/pkg/util/xgeo"
	"github.com/omeyang/xgeo/pkg/util/xlru"
)

// Cached 用带 TTL 的 LRU 记忆化另一个解析器。只缓存成功结果。
// 使用完毕需调用 Close。
type Cached struct {
	next Resolver
	lru  *xlru.Cache[string, xgeo.Coordinate]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCached 创建记忆化解析器。size 和 ttl 的约束同 xlru.Config。
func NewCached(next Resolver, size int, ttl time.Duration) (*Cached, error) {
	if next == nil {
		return nil, ErrNilResolver
	}
	lru, err := xlru.New[string, xgeo.Coordinate](xlru.Config{Size: size, TTL: ttl}, nil)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, lru: lru}, nil
}

// Resolve 优先返回缓存结果，未命中时委托给下游解析器。
func (c *Cached) Resolve(ctx context.Context, id string) (xgeo.Coordinate, error) {
	if loc, ok := c.lru.Get(id); ok {
		c.hits.Add(1)
		return loc, nil
	}
	c.misses.Add(1)

	loc, err := c.next.Resolve(ctx, id)
	if err != nil {
		return xgeo.Coordinate{}, err
	}
	c.lru.Set(id, loc)
	return loc, nil
}

// Forget 删除 id 的缓存结果。
func (c *Cached) Forget(id string) bool {
	return c.lru.Delete(id)
}

// Stats 返回命中与未命中次数。
func (c *Cached) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Close 释放缓存。
func (c *Cached) Close() {
	c.lru.Close()
}
