package xcron

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
)

// ErrNilJob 表示任务为 nil。
var ErrNilJob = errors.New("xcron: job cannot be nil")

// JobID 任务唯一标识，直接复用 cron.EntryID。
type JobID = cron.EntryID

// Job 定时任务。任务应响应 ctx.Done()。
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc 函数适配器。
type JobFunc func(ctx context.Context) error

// Run 实现 [Job] 接口。
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}
