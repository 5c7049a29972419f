// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xgeo: 地理坐标与大圆距离（haversine）
//   - xlru: LRU 缓存，泛型支持、自动 TTL 过期
package util
