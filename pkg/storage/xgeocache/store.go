package xgeocache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// EvictReason 条目被移除的原因。
type EvictReason string

const (
	// EvictCapacity 节点写满，淘汰最久未访问的条目。
	EvictCapacity EvictReason = "capacity"
	// EvictExpired 过期清扫。
	EvictExpired EvictReason = "expired"
	// EvictDeleted 显式删除。
	EvictDeleted EvictReason = "deleted"
	// EvictPurged 清空节点。
	EvictPurged EvictReason = "purged"
)

// nodeStore 单个节点的存储：recency 表 + 过期时间表，由 mu 保护。
//
// 所有移除都经过 lru 的淘汰回调，回调里同步删除 expires 中的 key，
// 因此在锁外观察时两张表的 key 集合始终一致。
type nodeStore[K comparable, V any] struct {
	node     Node
	capacity int

	mu      sync.Mutex
	lru     *simplelru.LRU[K, V] // 链表头为最近使用
	expires map[K]time.Time
	reason  EvictReason // 当前正在进行的移除原因，仅在 mu 内读写

	onRemoved func(node string, key any, reason EvictReason)

	hits        atomic.Uint64
	misses      atomic.Uint64
	writes      atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
	deletions   atomic.Uint64
}

func newNodeStore[K comparable, V any](node Node, capacity int, onRemoved func(string, any, EvictReason)) (*nodeStore[K, V], error) {
	s := &nodeStore[K, V]{
		node:      node,
		capacity:  capacity,
		expires:   make(map[K]time.Time, capacity),
		onRemoved: onRemoved,
	}
	lru, err := simplelru.NewLRU[K, V](capacity, s.removed)
	if err != nil {
		return nil, err
	}
	s.lru = lru
	return s, nil
}

// removed 是 lru 的淘汰回调，调用时 mu 已被持有。
func (s *nodeStore[K, V]) removed(key K, _ V) {
	delete(s.expires, key)

	switch s.reason {
	case EvictCapacity:
		s.evictions.Add(1)
	case EvictExpired:
		s.expirations.Add(1)
	case EvictDeleted, EvictPurged:
		s.deletions.Add(1)
	}
	if s.onRemoved != nil {
		s.onRemoved(s.node.ID, key, s.reason)
	}
}

// set 写入 key 并返回是否因容量淘汰了其他条目。
//
// 已存在的 key 只更新值和位置，不会触发淘汰。
func (s *nodeStore[K, V]) set(key K, value V, expiresAt time.Time) (evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.Contains(key) && s.lru.Len() >= s.capacity {
		s.reason = EvictCapacity
		_, _, evicted = s.lru.RemoveOldest()
	}
	// 容量已预留，Add 不会再触发内部淘汰
	s.lru.Add(key, value)
	s.expires[key] = expiresAt
	s.writes.Add(1)
	return evicted
}

// get 命中时移到最近使用位置并刷新过期时间。
func (s *nodeStore[K, V]) get(key K, expiresAt time.Time) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.lru.Get(key)
	if !ok {
		s.misses.Add(1)
		return value, false
	}
	s.expires[key] = expiresAt
	s.hits.Add(1)
	return value, true
}

// peek 读取但不改变访问顺序和过期时间。
func (s *nodeStore[K, V]) peek(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Peek(key)
}

func (s *nodeStore[K, V]) remove(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reason = EvictDeleted
	return s.lru.Remove(key)
}

// deleteExpired 删除过期时间严格早于 now 的条目，返回删除数量。
// 存活条目的相对顺序不变。
func (s *nodeStore[K, V]) deleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []K
	for key, at := range s.expires {
		if at.Before(now) {
			stale = append(stale, key)
		}
	}

	s.reason = EvictExpired
	for _, key := range stale {
		s.lru.Remove(key)
	}
	return len(stale)
}

func (s *nodeStore[K, V]) purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.lru.Len()
	s.reason = EvictPurged
	s.lru.Purge()
	return n
}

func (s *nodeStore[K, V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// keys 按从最久未使用到最近使用的顺序返回。
func (s *nodeStore[K, V]) keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

func (s *nodeStore[K, V]) expiry(key K) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.expires[key]
	return at, ok
}

func (s *nodeStore[K, V]) stats() NodeStats {
	return NodeStats{
		Node:        s.node,
		Len:         s.len(),
		Capacity:    s.capacity,
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Writes:      s.writes.Load(),
		Evictions:   s.evictions.Load(),
		Expirations: s.expirations.Load(),
		Deletions:   s.deletions.Load(),
	}
}
