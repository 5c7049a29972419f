// Package geo 提供地理定位相关的子包。
//
// 子包列表：
//   - xlocate: 节点与调用方的坐标解析（静态表、HTTP 查询、缓存、链式组合）
//
// 设计原则：
//   - 对外部服务的调用带重试与熔断，并发查询合并
//   - 解析失败不缓存
package geo
