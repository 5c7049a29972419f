package xcron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
)

// jobWrapper 给任务加上超时、panic 恢复、统计和日志，实现 cron.Job。
type jobWrapper struct {
	job     Job
	opts    *jobOptions
	logger  *slog.Logger
	stats   *Stats
	baseCtx context.Context
}

// Run 实现 cron.Job 接口。
func (w *jobWrapper) Run() {
	ctx := w.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if w.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.timeout)
		defer cancel()
	}

	start := time.Now()
	err := w.safeRun(ctx)
	duration := time.Since(start)

	w.stats.record(w.opts.name, duration, err)

	if err != nil {
		w.logger.LogAttrs(ctx, slog.LevelError, "job failed",
			xlog.Component("xcron"), slog.String("job", w.opts.name), xlog.Err(err))
		return
	}
	w.logger.LogAttrs(ctx, slog.LevelDebug, "job completed",
		xlog.Component("xcron"), slog.String("job", w.opts.name), xlog.Duration(duration))
}

// safeRun 执行任务，panic 转为错误。
func (w *jobWrapper) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("xcron: job %q panicked: %v", w.opts.name, r)
		}
	}()
	return w.job.Run(ctx)
}
