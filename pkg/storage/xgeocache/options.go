package xgeocache

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/omeyang/xgeo/pkg/observability/xmetrics"
)

// defaultResolveConcurrency 构造期并发解析节点坐标的默认上限。
const defaultResolveConcurrency = 8

// Option 定义缓存可选配置函数类型。
type Option func(*options)

type options struct {
	clock              clockwork.Clock
	logger             *slog.Logger
	metrics            xmetrics.Recorder
	onRemoved          func(node string, key any, reason EvictReason)
	resolveConcurrency int
}

func defaultOptions() *options {
	return &options{
		clock:              clockwork.NewRealClock(),
		logger:             slog.Default(),
		metrics:            xmetrics.NoopRecorder{},
		resolveConcurrency: defaultResolveConcurrency,
	}
}

// WithClock 设置时钟，测试中可注入 clockwork.FakeClock。
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger 设置日志记录器，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics 设置指标记录器，默认不记录。
func WithMetrics(rec xmetrics.Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithOnRemoved 设置条目被移除时的回调（容量淘汰、过期清扫、删除、清空）。
//
// 回调在节点锁内同步执行：
//   - 严禁在回调中调用 Cache 自身的任何方法，否则会死锁
//   - 应避免耗时操作，以免阻塞该节点的其他操作
func WithOnRemoved(fn func(node string, key any, reason EvictReason)) Option {
	return func(o *options) {
		o.onRemoved = fn
	}
}

// WithResolveConcurrency 设置构造期并发解析节点坐标的上限，n <= 0 时忽略。
func WithResolveConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.resolveConcurrency = n
		}
	}
}
