package xlru

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxSize 缓存最大条目数上限。
const maxSize = 1 << 24

// Config 定义缓存配置。
type Config struct {
	// Size 最大条目数，必须大于 0 且不超过 16,777,216。
	Size int

	// TTL 条目过期时间，0 表示永不过期。
	TTL time.Duration
}

// Cache 是带 TTL 的 LRU 缓存，必须通过 [New] 创建。
// 所有方法并发安全；Close 之后读操作返回 miss，写操作被忽略。
type Cache[K comparable, V any] struct {
	lru       *expirable.LRU[K, V]
	closed    atomic.Bool
	closeOnce sync.Once
}

// New 创建缓存。onEvicted 可为 nil，回调在底层锁内执行，不能回调 Cache 自身。
func New[K comparable, V any](cfg Config, onEvicted func(key K, value V)) (*Cache[K, V], error) {
	switch {
	case cfg.Size <= 0:
		return nil, ErrInvalidSize
	case cfg.Size > maxSize:
		return nil, ErrSizeExceedsMax
	case cfg.TTL < 0:
		return nil, ErrInvalidTTL
	}
	return &Cache[K, V]{lru: expirable.NewLRU(cfg.Size, onEvicted, cfg.TTL)}, nil
}

// Get 读取并标记为最近使用。已过期的条目返回 miss。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	if c.closed.Load() {
		return value, false
	}
	return c.lru.Get(key)
}

// Set 写入条目，返回是否因容量淘汰了其他条目。
func (c *Cache[K, V]) Set(key K, value V) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Add(key, value)
}

// Delete 删除条目，返回 key 是否存在。
func (c *Cache[K, V]) Delete(key K) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Remove(key)
}

// Len 返回条目数，可能包含已过期但尚未被清理的条目。
func (c *Cache[K, V]) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.lru.Len()
}

// Purge 清空所有条目。
func (c *Cache[K, V]) Purge() {
	if c.closed.Load() {
		return
	}
	c.lru.Purge()
}

// Close 清空缓存并停止后台清理 goroutine，可重复调用。
func (c *Cache[K, V]) Close() {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopCleanupGoroutine(c.lru)
	})
}

// stopCleanupGoroutine 关闭 expirable.LRU 未导出的 done 通道，使清理 goroutine 退出。
// 上游结构不符或通道已关闭时返回 false。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.Type() != reflect.TypeOf(make(chan struct{})) || done.IsNil() {
		return false
	}

	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 访问上游未导出字段
	close(ch)
	return true
}
