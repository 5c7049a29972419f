package xcron

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type schedulerOptions struct {
	logger   *slog.Logger
	location *time.Location
	parser   cron.Parser
}

func defaultSchedulerOptions() *schedulerOptions {
	return &schedulerOptions{
		logger:   slog.Default(),
		location: time.Local,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// SchedulerOption 调度器配置选项。
type SchedulerOption func(*schedulerOptions)

// WithLogger 设置日志记录器，默认 slog.Default()。
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLocation 设置 cron 表达式的时区，默认本地时区。
func WithLocation(loc *time.Location) SchedulerOption {
	return func(o *schedulerOptions) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithSeconds 启用秒级精度，表达式首字段为秒。
func WithSeconds() SchedulerOption {
	return func(o *schedulerOptions) {
		o.parser = cron.NewParser(
			cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		)
	}
}

type jobOptions struct {
	name    string
	timeout time.Duration
}

// JobOption 任务配置选项。
type JobOption func(*jobOptions)

// WithName 设置任务名，用于日志和统计。未设置时统计归入 "anonymous"。
func WithName(name string) JobOption {
	return func(o *jobOptions) {
		o.name = name
	}
}

// WithTimeout 设置单次执行超时，超时后任务的 ctx 被取消。
func WithTimeout(d time.Duration) JobOption {
	return func(o *jobOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}
