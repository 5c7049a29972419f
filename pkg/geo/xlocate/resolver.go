package xlocate

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

// Resolver 把 ID（节点地址或调用方 IP）解析为坐标。
type Resolver interface {
	Resolve(ctx context.Context, id string) (xgeo.Coordinate, error)
}

// Static 固定坐标表。
type Static struct {
	table map[string]xgeo.Coordinate
}

// NewStatic 复制 table 创建静态解析器。
func NewStatic(table map[string]xgeo.Coordinate) *Static {
	return &Static{table: maps.Clone(table)}
}

// Resolve 查表，未命中返回 ErrUnknownID。
func (s *Static) Resolve(_ context.Context, id string) (xgeo.Coordinate, error) {
	loc, ok := s.table[id]
	if !ok {
		return xgeo.Coordinate{}, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return loc, nil
}

// Len 返回表中条目数。
func (s *Static) Len() int { return len(s.table) }

// Chain 依次尝试多个解析器。
type Chain struct {
	resolvers []Resolver
}

// NewChain 创建链式解析器，nil 元素被忽略。
func NewChain(resolvers ...Resolver) (*Chain, error) {
	c := &Chain{}
	for _, r := range resolvers {
		if r != nil {
			c.resolvers = append(c.resolvers, r)
		}
	}
	if len(c.resolvers) == 0 {
		return nil, ErrNoResolvers
	}
	return c, nil
}

// Resolve 返回第一个成功的结果；全部失败时返回合并后的错误。
// ctx 取消时立即返回。
func (c *Chain) Resolve(ctx context.Context, id string) (xgeo.Coordinate, error) {
	var errs []error
	for _, r := range c.resolvers {
		loc, err := r.Resolve(ctx, id)
		if err == nil {
			return loc, nil
		}
		errs = append(errs, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return xgeo.Coordinate{}, ctxErr
		}
	}
	return xgeo.Coordinate{}, errors.Join(errs...)
}
