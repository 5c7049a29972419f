// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xgeocache: 按地理位置路由的多节点 LRU/TTL 缓存
//
// 设计原则：
//   - 每个节点独立加锁，不同节点上的操作互不阻塞
//   - 容量与过期两种淘汰规则同时生效
//   - 不持有后台 goroutine，周期清扫由调用方调度
package storage
