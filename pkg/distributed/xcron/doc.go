// Package xcron 是基于 robfig/cron/v3 的本地定时任务调度器。
//
// 在 robfig/cron 之上增加：
//   - 任务接收 context，可按任务设置超时
//   - panic 恢复，任务 panic 记为一次失败
//   - 同一任务上一次未结束时跳过本次（cron.SkipIfStillRunning）
//   - 按任务名聚合的执行统计
//   - 日志统一走 *slog.Logger
//
// xgeoctl 用它周期性地调用 Cache.DeleteExpired：
//
//	s := xcron.New(xcron.WithLogger(logger))
//	_, err := s.AddFunc("@every 1s", func(ctx context.Context) error {
//	    cache.DeleteExpired()
//	    return nil
//	}, xcron.WithName("sweep"))
//	s.Start()
//	defer func() { <-s.Stop().Done() }()
package xcron
