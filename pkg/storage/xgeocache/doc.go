// Package xgeocache 提供按地理位置路由的多节点 LRU + TTL 缓存。
//
// 每个节点持有一个独立的、容量有界的缓存；每次读写都会根据调用方坐标
// 选出大圆距离最近的节点（见 xgeo.Distance），并委托给该节点处理。
// 这是单进程内对多节点缓存的模拟，不做跨机分布、持久化或节点间一致性。
//
// # 核心特性
//
//   - 就近路由：距离相同时选配置顺序中靠前的节点，结果确定
//   - LRU 淘汰：节点写满时淘汰最久未访问的条目
//   - TTL：写入和命中都会把过期时间刷新为 now + TTL
//   - 显式清扫：[Cache.DeleteExpired] 删除所有过期条目，由外部定时调用
//   - 节点级锁：不同节点的操作可以完全并行，同一节点串行
//
// # 数据模型
//
// 每个节点的存储由两部分组成：按访问顺序排列的 key→value 表
// （hashicorp/golang-lru simplelru，双向链表 + 哈希表）和 key→过期时间表。
// 两者在节点锁内同步更新，任何时刻外部看到的 key 集合都完全一致。
//
// # 构造
//
// [New] 先校验配置（容量、TTL、节点 ID），非法配置直接返回错误。
// 随后通过 [Resolver] 解析每个节点的坐标：解析失败的节点不参与路由，
// 记录为 [*LocationError] 并输出 WARN 日志，缓存仍可使用其余节点。
//
// # 语义说明
//
//   - Get 不会回退到其他节点：调用方位置变化后，写在旧节点上的 key 对 Get 不可见
//   - 过期但尚未清扫的条目仍然可读，读取会刷新其过期时间
//   - 零值（0、""）是正常的命中
//   - 更新已存在的 key 不会触发淘汰
//   - 没有可路由节点时，Set/Get 返回 [ErrNoNodesConfigured]
//
// # 注意事项
//
//   - 淘汰回调在节点锁内同步执行，严禁在回调中调用 Cache 自身方法（会死锁）
//   - Cache 不启动后台 goroutine，清扫频率由调用方决定（如 xcron）
package xgeocache
