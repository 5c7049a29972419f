package xcron

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
)

// cronLogger 把 cron.Logger 适配到 slog。
// robfig/cron 的 Info 多是调度细节，统一降为 Debug。
type cronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Log(context.Background(), slog.LevelDebug, msg,
		append([]any{xlog.Component("xcron")}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Log(context.Background(), slog.LevelError, msg,
		append([]any{xlog.Component("xcron"), xlog.Err(err)}, keysAndValues...)...)
}
