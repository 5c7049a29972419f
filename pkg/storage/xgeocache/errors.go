package xgeocache

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNodesConfigured 表示没有任何可路由的节点。
	// 只影响本次调用，缓存实例仍然有效。
	ErrNoNodesConfigured = errors.New("xgeocache: no nodes configured")

	// ErrLocationUnresolved 表示节点坐标无法解析，该节点被排除在路由之外。
	ErrLocationUnresolved = errors.New("xgeocache: location unresolved")

	// ErrInvalidCapacity 表示容量配置无效。
	ErrInvalidCapacity = errors.New("xgeocache: capacity must be greater than 0")

	// ErrCapacityTooLarge 表示容量超过上限 (16,777,216)。
	ErrCapacityTooLarge = errors.New("xgeocache: capacity must not exceed 16777216")

	// ErrInvalidTTL 表示 TTL 配置无效。
	ErrInvalidTTL = errors.New("xgeocache: TTL must be greater than 0")

	// ErrInvalidNode 表示节点 ID 为空或重复。
	ErrInvalidNode = errors.New("xgeocache: invalid node")

	// ErrNilResolver 表示配置了节点但未提供坐标解析器。
	ErrNilResolver = errors.New("xgeocache: nil resolver")

	// ErrUnknownNode 表示按 ID 查询的节点不存在或不可路由。
	ErrUnknownNode = errors.New("xgeocache: unknown node")
)

// LocationError 记录构造期某个节点坐标解析失败的原因。
//
// errors.Is(err, ErrLocationUnresolved) 恒为 true，
// 同时可以通过 errors.Is/As 匹配底层解析错误。
type LocationError struct {
	Node string
	Err  error
}

// Error 实现 error 接口。
func (e *LocationError) Error() string {
	return fmt.Sprintf("xgeocache: node %q: location unresolved: %v", e.Node, e.Err)
}

// Unwrap 同时暴露 ErrLocationUnresolved 与底层错误。
func (e *LocationError) Unwrap() []error {
	return []error{ErrLocationUnresolved, e.Err}
}
