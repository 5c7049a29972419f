// Package xlog 基于 log/slog 的结构化日志构建器。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 动态级别调整：Build 返回共享的 *slog.LevelVar
//   - 基于 lumberjack 的文件轮转
//   - 常用属性构造函数（[Err]、[Component]、[Node]、[Count]）
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后，后续 Set 的错误不再覆盖。
//
//	logger, level, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xgeo/app.log", xlog.WithMaxSizeMB(50)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//	level.Set(slog.LevelWarn) // 运行时调整级别
//
// 组件通过选项接收 *slog.Logger，不依赖全局 Logger。
package xlog
