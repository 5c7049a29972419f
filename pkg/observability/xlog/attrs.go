package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key。
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyNode      = "node"
	KeyCount     = "count"
	KeyDuration  = "duration"
)

// Err 创建错误属性。err 为 nil 时返回空属性（会被 handler 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 创建组件名称属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Node 创建缓存节点属性。
func Node(id string) slog.Attr {
	return slog.String(KeyNode, id)
}

// Count 创建计数属性。
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Duration 创建人类可读的耗时属性（如 "1.5s"）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}
