// Package xrun 基于 errgroup 协调一组 goroutine 的运行与关闭。
//
// 任一函数返回错误、调用 Cancel 或收到系统信号时，其余函数的 ctx 都会被取消。
// xgeoctl 用它同时运行清扫调度器与演示流程：
//
//	err := xrun.RunWithOptions(ctx, []xrun.Option{xrun.WithName("demo")},
//	    runScheduler,
//	    runScenario,
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 被 Ctrl-C 中断
//	}
package xrun
