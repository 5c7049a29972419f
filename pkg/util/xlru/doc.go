// Package xlru 提供带 TTL 的 LRU 缓存，基于 hashicorp/golang-lru/v2/expirable。
//
// 主要用于记忆化远程查询结果（例如 IP 地理位置），条目超过 TTL 后 Get 返回 miss。
//
// 语义：
//   - Get 不刷新 TTL，Set 覆盖已有 key 时刷新 TTL
//   - 容量满时淘汰最久未访问的条目
//   - 使用完毕必须调用 Close，停止底层库的后台清理 goroutine
//
// 底层库 v2.0.7 没有公开的 Close，这里通过 reflect 关闭其内部 done 通道，
// 升级 golang-lru 时需确认 TestStopCleanupGoroutine_UpstreamLayout 仍然通过。
package xlru
