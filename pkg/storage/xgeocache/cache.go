package xgeocache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/observability/xmetrics"
	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

// Cache 是按地理位置路由的多节点 LRU + TTL 缓存。
// 必须通过 [New] 创建，零值不可用。所有方法都是并发安全的。
//
// 节点集合在构造后不可变，每个节点的存储由独立的锁保护。
type Cache[K comparable, V any] struct {
	nodes    []*nodeStore[K, V] // 可路由节点，保持配置顺序
	byID     map[string]*nodeStore[K, V]
	excluded []*LocationError

	capacity int
	ttl      time.Duration

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics xmetrics.Recorder
}

// New 创建缓存并解析所有节点的坐标。
//
// 配置非法时直接返回错误，不会构造出处于非法状态的缓存：
//   - cfg.Capacity <= 0 返回 ErrInvalidCapacity，超过上限返回 ErrCapacityTooLarge
//   - cfg.TTL <= 0 返回 ErrInvalidTTL
//   - 节点 ID 为空或重复返回 ErrInvalidNode
//   - 配置了节点但 resolver 为 nil 返回 ErrNilResolver
//
// 单个节点解析失败（或解析出 NaN/Inf 坐标）不是致命错误：该节点被排除在路由之外，
// 通过 [Cache.Excluded] 查询，并以 WARN 级别记录日志。
// 解析期间 ctx 被取消时返回 ctx 的错误。
func New[K comparable, V any](ctx context.Context, cfg Config, resolver Resolver, opts ...Option) (*Cache[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if resolver == nil && len(cfg.Nodes) > 0 {
		return nil, ErrNilResolver
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	locations, failures, err := resolveAll(ctx, cfg.Nodes, resolver, o.resolveConcurrency)
	if err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		byID:     make(map[string]*nodeStore[K, V], len(cfg.Nodes)),
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		clock:    o.clock,
		logger:   o.logger,
		metrics:  o.metrics,
	}

	for i, id := range cfg.Nodes {
		if failures[i] != nil {
			lerr := &LocationError{Node: id, Err: failures[i]}
			c.excluded = append(c.excluded, lerr)
			c.logger.LogAttrs(ctx, slog.LevelWarn, "node excluded from routing",
				xlog.Component("xgeocache"), xlog.Node(id), xlog.Err(failures[i]))
			continue
		}
		store, err := newNodeStore[K, V](Node{ID: id, Location: locations[i]}, cfg.Capacity, o.onRemoved)
		if err != nil {
			return nil, fmt.Errorf("xgeocache: create store for node %q: %w", id, err)
		}
		c.nodes = append(c.nodes, store)
		c.byID[id] = store
	}

	c.logger.LogAttrs(ctx, slog.LevelInfo, "geo cache ready",
		xlog.Component("xgeocache"),
		slog.Int("routable", len(c.nodes)),
		slog.Int("excluded", len(c.excluded)),
		slog.Int("capacity", cfg.Capacity),
		xlog.Duration(cfg.TTL),
	)
	return c, nil
}

// resolveAll 并发解析节点坐标，结果按配置顺序返回。
// 单个节点失败记录在 failures 中，只有 ctx 取消才返回 err。
func resolveAll(ctx context.Context, ids []string, resolver Resolver, limit int) ([]xgeo.Coordinate, []error, error) {
	locations := make([]xgeo.Coordinate, len(ids))
	failures := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			loc, err := resolver.Resolve(ctx, id)
			switch {
			case err != nil:
				failures[i] = err
			case !loc.IsFinite():
				failures[i] = fmt.Errorf("non-finite coordinate %s", loc)
			default:
				locations[i] = loc
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("xgeocache: resolve node locations: %w", err)
	}
	return locations, failures, nil
}

// route 选出距离 caller 最近的节点。
// 使用严格小于比较，距离相同时保留配置顺序中靠前的节点。
func (c *Cache[K, V]) route(caller xgeo.Coordinate) (*nodeStore[K, V], error) {
	if len(c.nodes) == 0 {
		return nil, ErrNoNodesConfigured
	}
	best := c.nodes[0]
	bestDist := caller.DistanceTo(best.node.Location)
	for _, s := range c.nodes[1:] {
		if d := caller.DistanceTo(s.node.Location); d < bestDist {
			best, bestDist = s, d
		}
	}
	c.metrics.Route(context.Background(), best.node.ID, bestDist)
	return best, nil
}

// NearestNode 返回距离 caller 最近的节点。
// 结果只取决于 caller 与节点集合，重复调用返回同一节点。
func (c *Cache[K, V]) NearestNode(caller xgeo.Coordinate) (Node, error) {
	s, err := c.route(caller)
	if err != nil {
		return Node{}, err
	}
	return s.node, nil
}

// Set 将 key 写入距离 caller 最近的节点，过期时间为 now + TTL。
//
//   - key 已存在：更新值，移到最近使用位置，不会淘汰其他条目
//   - key 不存在且节点已满：先淘汰最久未使用的条目
func (c *Cache[K, V]) Set(caller xgeo.Coordinate, key K, value V) error {
	s, err := c.route(caller)
	if err != nil {
		c.metrics.Request(context.Background(), "", xmetrics.OpSet, xmetrics.OutcomeError)
		return err
	}

	ctx := context.Background()
	if s.set(key, value, c.clock.Now().Add(c.ttl)) {
		c.metrics.Removal(ctx, s.node.ID, string(EvictCapacity), 1)
	}
	c.metrics.Request(ctx, s.node.ID, xmetrics.OpSet, xmetrics.OutcomeOK)
	return nil
}

// Get 从距离 caller 最近的节点读取 key。
//
// 不会回退到其他节点。命中时刷新访问顺序和过期时间；
// 未命中返回零值和 false，不是错误。
func (c *Cache[K, V]) Get(caller xgeo.Coordinate, key K) (V, bool, error) {
	s, err := c.route(caller)
	if err != nil {
		c.metrics.Request(context.Background(), "", xmetrics.OpGet, xmetrics.OutcomeError)
		var zero V
		return zero, false, err
	}

	value, ok := s.get(key, c.clock.Now().Add(c.ttl))
	outcome := xmetrics.OutcomeMiss
	if ok {
		outcome = xmetrics.OutcomeHit
	}
	c.metrics.Request(context.Background(), s.node.ID, xmetrics.OpGet, outcome)
	return value, ok, nil
}

// Peek 从距离 caller 最近的节点读取 key，不改变访问顺序和过期时间。
func (c *Cache[K, V]) Peek(caller xgeo.Coordinate, key K) (V, bool, error) {
	s, err := c.route(caller)
	if err != nil {
		var zero V
		return zero, false, err
	}
	value, ok := s.peek(key)
	return value, ok, nil
}

// Delete 从距离 caller 最近的节点删除 key，返回 key 是否存在。
func (c *Cache[K, V]) Delete(caller xgeo.Coordinate, key K) (bool, error) {
	s, err := c.route(caller)
	if err != nil {
		c.metrics.Request(context.Background(), "", xmetrics.OpDelete, xmetrics.OutcomeError)
		return false, err
	}

	ctx := context.Background()
	removed := s.remove(key)
	if removed {
		c.metrics.Removal(ctx, s.node.ID, string(EvictDeleted), 1)
	}
	c.metrics.Request(ctx, s.node.ID, xmetrics.OpDelete, xmetrics.OutcomeOK)
	return removed, nil
}

// DeleteExpired 清扫所有节点，删除过期时间严格早于当前时间的条目，
// 返回删除总数。各节点依次独立加锁，存活条目的访问顺序不变。
func (c *Cache[K, V]) DeleteExpired() int {
	now := c.clock.Now()
	ctx := context.Background()

	total := 0
	for _, s := range c.nodes {
		n := s.deleteExpired(now)
		if n == 0 {
			continue
		}
		total += n
		c.metrics.Removal(ctx, s.node.ID, string(EvictExpired), n)
		c.logger.LogAttrs(ctx, slog.LevelDebug, "expired entries swept",
			xlog.Component("xgeocache"), xlog.Node(s.node.ID), xlog.Count(n))
	}
	return total
}

// Purge 清空所有节点。
func (c *Cache[K, V]) Purge() {
	ctx := context.Background()
	for _, s := range c.nodes {
		if n := s.purge(); n > 0 {
			c.metrics.Removal(ctx, s.node.ID, string(EvictPurged), n)
		}
	}
}

// Len 返回指定节点的条目数（含已过期但尚未清扫的条目）。
func (c *Cache[K, V]) Len(nodeID string) (int, error) {
	s, ok := c.byID[nodeID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, nodeID)
	}
	return s.len(), nil
}

// Keys 返回指定节点的所有 key，按从最久未使用到最近使用排列。
func (c *Cache[K, V]) Keys(nodeID string) ([]K, error) {
	s, ok := c.byID[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, nodeID)
	}
	return s.keys(), nil
}

// ExpiresAt 返回指定节点上 key 的过期时间。
func (c *Cache[K, V]) ExpiresAt(nodeID string, key K) (time.Time, bool) {
	s, ok := c.byID[nodeID]
	if !ok {
		return time.Time{}, false
	}
	return s.expiry(key)
}

// Nodes 返回可路由节点，保持配置顺序。
func (c *Cache[K, V]) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	for i, s := range c.nodes {
		out[i] = s.node
	}
	return out
}

// Excluded 返回构造期因坐标解析失败而被排除的节点。
func (c *Cache[K, V]) Excluded() []*LocationError {
	out := make([]*LocationError, len(c.excluded))
	copy(out, c.excluded)
	return out
}

// Stats 返回每个可路由节点的统计信息，保持配置顺序。
func (c *Cache[K, V]) Stats() []NodeStats {
	out := make([]NodeStats, len(c.nodes))
	for i, s := range c.nodes {
		out[i] = s.stats()
	}
	return out
}

// Capacity 返回每个节点的容量。
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// TTL 返回条目过期时间。
func (c *Cache[K, V]) TTL() time.Duration { return c.ttl }
