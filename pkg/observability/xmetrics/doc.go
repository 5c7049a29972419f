// Package xmetrics 提供缓存指标记录接口及其 OpenTelemetry 实现。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口 [Recorder]，缓存代码只依赖接口；
// 具体实现可替换。默认实现 [NoopRecorder] 不做任何事，
// [NewOTelRecorder] 基于 OpenTelemetry metric API，兼容主流可观测栈。
//
// # 使用示例
//
//	rec, _ := xmetrics.NewOTelRecorder(xmetrics.WithMeterProvider(mp))
//	cache, _ := xgeocache.New[string, string](ctx, cfg, resolver,
//		xgeocache.WithMetrics(rec))
//
// # 指标命名
//
//   - xgeo.cache.requests：读写请求数，属性 node / op / result
//   - xgeo.cache.removals：条目移除数，属性 node / reason
//   - xgeo.cache.route.distance：路由时调用方到节点的距离（km）
package xmetrics
