// Package xlocate 提供把地址解析为地理坐标的组件，供 xgeocache 构造期定位节点、
// 以及命令行工具定位调用方使用。
//
// 所有解析器都实现同一个方法：
//
//	Resolve(ctx context.Context, id string) (xgeo.Coordinate, error)
//
// 可用实现：
//   - [Static]：固定的 ID → 坐标表
//   - [HTTPResolver]：调用 ipapi.co 风格的 IP 地理位置接口，带重试、熔断和请求合并
//   - [Cached]：用带 TTL 的 LRU 记忆化另一个解析器，失败结果不缓存
//   - [Chain]：依次尝试多个解析器，第一个成功的胜出
//
// [IPFetcher] 查询本机公网 IP，[CallerLocator] 组合二者得到调用方坐标。
package xlocate
