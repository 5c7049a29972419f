package xgeocache

import (
	"context"
	"fmt"
	"time"

	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

// maxCapacity 单节点最大条目数上限。
const maxCapacity = 1 << 24 // 16,777,216

// Config 定义缓存配置，构造后不可修改。
type Config struct {
	// Nodes 节点 ID 列表（通常是 IP 地址），顺序决定距离相同时的优先级。
	Nodes []string

	// Capacity 每个节点的最大条目数，所有节点共用。
	// 必须大于 0 且不超过 16,777,216。
	Capacity int

	// TTL 条目过期时间，必须大于 0。
	TTL time.Duration
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.Capacity > maxCapacity {
		return ErrCapacityTooLarge
	}
	if c.TTL <= 0 {
		return ErrInvalidTTL
	}
	seen := make(map[string]struct{}, len(c.Nodes))
	for i, id := range c.Nodes {
		if id == "" {
			return fmt.Errorf("%w: empty id at position %d", ErrInvalidNode, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidNode, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Node 可路由的缓存节点。
type Node struct {
	ID       string
	Location xgeo.Coordinate
}

// Resolver 将节点 ID 解析为地理坐标。
//
// xlocate 包提供静态表、HTTP 查询和带缓存的实现。
type Resolver interface {
	Resolve(ctx context.Context, id string) (xgeo.Coordinate, error)
}

// ResolverFunc 函数适配器。
type ResolverFunc func(ctx context.Context, id string) (xgeo.Coordinate, error)

// Resolve 实现 Resolver。
func (f ResolverFunc) Resolve(ctx context.Context, id string) (xgeo.Coordinate, error) {
	return f(ctx, id)
}
