package xcron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler 定时任务调度器，通过 [New] 创建。
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	stats  *Stats

	runCtx    context.Context
	runCancel context.CancelFunc
	stopOnce  sync.Once
	stopped   context.Context
}

// New 创建调度器。同一任务上一次执行未结束时，本次调度被跳过。
func New(opts ...SchedulerOption) *Scheduler {
	o := defaultSchedulerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cl := cronLogger{logger: o.logger}
	runCtx, runCancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(o.location),
			cron.WithParser(o.parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		logger:    o.logger,
		stats:     newStats(),
		runCtx:    runCtx,
		runCancel: runCancel,
	}
}

// AddFunc 添加函数任务，spec 如 "@every 1s" 或 "*/5 * * * *"。
func (s *Scheduler) AddFunc(spec string, fn func(ctx context.Context) error, opts ...JobOption) (JobID, error) {
	if fn == nil {
		return 0, ErrNilJob
	}
	return s.AddJob(spec, JobFunc(fn), opts...)
}

// AddJob 添加 [Job] 任务。
func (s *Scheduler) AddJob(spec string, job Job, opts ...JobOption) (JobID, error) {
	if job == nil {
		return 0, ErrNilJob
	}
	jo := &jobOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(jo)
		}
	}

	id, err := s.cron.AddJob(spec, &jobWrapper{
		job:     job,
		opts:    jo,
		logger:  s.logger,
		stats:   s.stats,
		baseCtx: s.runCtx,
	})
	if err != nil {
		return 0, fmt.Errorf("xcron: failed to add job: %w", err)
	}
	return id, nil
}

// Remove 移除任务，正在执行的不受影响。
func (s *Scheduler) Remove(id JobID) {
	s.cron.Remove(id)
}

// Start 启动调度器（非阻塞），重复调用无效果。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并取消运行中任务的 ctx。
// 返回的 context 在所有运行中的任务结束后 Done。可重复调用。
func (s *Scheduler) Stop() context.Context {
	s.stopOnce.Do(func() {
		s.runCancel()
		s.stopped = s.cron.Stop()
	})
	return s.stopped
}

// Entries 返回所有已注册的任务。
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// Stats 返回执行统计。
func (s *Scheduler) Stats() *Stats {
	return s.stats
}
