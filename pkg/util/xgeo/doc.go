// Package xgeo 提供地理坐标类型与球面距离估算。
//
// # 核心功能
//
//   - Coordinate：以度为单位的经纬度坐标
//   - Distance：基于 haversine 公式的大圆距离（千米）
//
// 地球半径固定取平均半径 6371.0 km（[EarthRadiusKm]）。
//
// # 输入范围
//
// Distance 不校验输入范围，纬度超出 [-90, 90] 或经度超出 [-180, 180] 的坐标
// 也会照常计算。需要校验时由调用方使用 [Coordinate.Valid]。
//
// # 性质
//
//   - 对称：Distance(a, b) == Distance(b, a)
//   - 同一点距离为 0
//   - 结果恒 >= 0
package xgeo
