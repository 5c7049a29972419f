package xmetrics

import "context"

// Op 标识缓存操作类型。
type Op string

const (
	// OpGet 读取。
	OpGet Op = "get"
	// OpSet 写入。
	OpSet Op = "set"
	// OpDelete 删除。
	OpDelete Op = "delete"
)

// Outcome 标识一次操作的结果。
type Outcome string

const (
	// OutcomeHit 读取命中。
	OutcomeHit Outcome = "hit"
	// OutcomeMiss 读取未命中。
	OutcomeMiss Outcome = "miss"
	// OutcomeOK 写入或删除完成。
	OutcomeOK Outcome = "ok"
	// OutcomeError 路由失败等错误。
	OutcomeError Outcome = "error"
)

// Recorder 定义缓存指标记录接口。
//
// 实现必须并发安全：不同节点的操作会并行调用 Recorder。
type Recorder interface {
	// Request 记录一次针对 node 的请求。node 为空表示路由失败。
	Request(ctx context.Context, node string, op Op, outcome Outcome)

	// Removal 记录从 node 移除 n 个条目，reason 如 "capacity"、"expired"。
	Removal(ctx context.Context, node string, reason string, n int)

	// Route 记录一次路由决策及调用方到所选节点的距离（km）。
	Route(ctx context.Context, node string, distanceKm float64)
}

// NoopRecorder 是空实现。
type NoopRecorder struct{}

// Request 空实现。
func (NoopRecorder) Request(context.Context, string, Op, Outcome) {}

// Removal 空实现。
func (NoopRecorder) Removal(context.Context, string, string, int) {}

// Route 空实现。
func (NoopRecorder) Route(context.Context, string, float64) {}

var _ Recorder = NoopRecorder{}
