package xgeocache

// NodeStats 单个节点的统计信息快照。
type NodeStats struct {
	// Node 节点 ID 与坐标。
	Node Node

	// Len 当前条目数（含已过期但尚未清扫的条目）。
	Len int

	// Capacity 节点容量。
	Capacity int

	// Hits 读取命中次数。
	Hits uint64

	// Misses 读取未命中次数。
	Misses uint64

	// Writes 写入次数。
	Writes uint64

	// Evictions 容量淘汰次数。
	Evictions uint64

	// Expirations 过期清扫移除的条目数。
	Expirations uint64

	// Deletions 显式删除与清空移除的条目数。
	Deletions uint64
}

// HitRatio 返回命中率 (0.0 - 1.0)，尚无读取时返回 0。
func (s NodeStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
