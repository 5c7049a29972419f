// Package distributed 提供任务调度相关的子包。
//
// 子包列表：
//   - xcron: 定时任务调度，支持超时、panic 恢复与执行统计
package distributed
