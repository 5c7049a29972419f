package xconf

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

// Format 定义配置文件格式。
type Format string

const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// maxCapacity 与 xgeocache 的单节点容量上限一致。
const maxCapacity = 1 << 24

// Config 是 xgeoctl 的完整配置。
type Config struct {
	Cache    CacheConfig    `koanf:"cache"`
	Nodes    []NodeConfig   `koanf:"nodes"`
	Resolver ResolverConfig `koanf:"resolver"`
	Caller   CallerConfig   `koanf:"caller"`
	Log      LogConfig      `koanf:"log"`
}

// CacheConfig 缓存参数。
type CacheConfig struct {
	Capacity      int           `koanf:"capacity"`
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// NodeConfig 单个节点。坐标要么都给，要么都不给；不给时在线解析。
type NodeConfig struct {
	ID        string   `koanf:"id"`
	Latitude  *float64 `koanf:"latitude"`
	Longitude *float64 `koanf:"longitude"`
}

// Location 返回配置中的坐标，未配置时 ok 为 false。
func (n NodeConfig) Location() (loc xgeo.Coordinate, ok bool) {
	if n.Latitude == nil || n.Longitude == nil {
		return xgeo.Coordinate{}, false
	}
	return xgeo.Coordinate{Latitude: *n.Latitude, Longitude: *n.Longitude}, true
}

// ResolverConfig 在线地理位置解析参数。Endpoint 为空时使用 ipapi.co。
type ResolverConfig struct {
	Endpoint   string        `koanf:"endpoint"`
	IPEndpoint string        `koanf:"ip_endpoint"`
	Timeout    time.Duration `koanf:"timeout"`
	Attempts   uint          `koanf:"attempts"`
	CacheSize  int           `koanf:"cache_size"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
}

// CallerConfig 固定的调用方坐标，未配置时由命令行参数或在线定位给出。
type CallerConfig struct {
	Latitude  *float64 `koanf:"latitude"`
	Longitude *float64 `koanf:"longitude"`
}

// Location 返回配置中的调用方坐标，未配置时 ok 为 false。
func (c CallerConfig) Location() (loc xgeo.Coordinate, ok bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return xgeo.Coordinate{}, false
	}
	return xgeo.Coordinate{Latitude: *c.Latitude, Longitude: *c.Longitude}, true
}

// LogConfig 日志参数。File 为空时输出到 stderr。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Capacity:      1024,
			TTL:           5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Resolver: ResolverConfig{
			Timeout:   5 * time.Second,
			Attempts:  3,
			CacheSize: 256,
			CacheTTL:  time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// NodeIDs 按配置顺序返回节点 ID。
func (c *Config) NodeIDs() []string {
	ids := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// StaticLocations 返回配置中直接给出坐标的节点。
func (c *Config) StaticLocations() map[string]xgeo.Coordinate {
	out := make(map[string]xgeo.Coordinate, len(c.Nodes))
	for _, n := range c.Nodes {
		if loc, ok := n.Location(); ok {
			out[n.ID] = loc
		}
	}
	return out
}

// NeedsResolver 是否有节点需要在线解析坐标。
func (c *Config) NeedsResolver() bool {
	for _, n := range c.Nodes {
		if _, ok := n.Location(); !ok {
			return true
		}
	}
	return false
}

// Validate 校验配置，所有问题合并后以 ErrInvalidConfig 返回。
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Cache.Capacity <= 0 || c.Cache.Capacity > maxCapacity {
		add("cache.capacity must be in [1, %d], got %d", maxCapacity, c.Cache.Capacity)
	}
	if c.Cache.TTL <= 0 {
		add("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.SweepInterval <= 0 {
		add("cache.sweep_interval must be positive, got %s", c.Cache.SweepInterval)
	}

	seen := make(map[string]struct{}, len(c.Nodes))
	for i, n := range c.Nodes {
		switch {
		case n.ID == "":
			add("nodes[%d].id is empty", i)
		default:
			if _, dup := seen[n.ID]; dup {
				add("nodes[%d].id %q is duplicated", i, n.ID)
			}
			seen[n.ID] = struct{}{}
		}
		if (n.Latitude == nil) != (n.Longitude == nil) {
			add("nodes[%d]: latitude and longitude must be set together", i)
		} else if loc, ok := n.Location(); ok && !loc.IsFinite() {
			add("nodes[%d]: coordinate %s is not finite", i, loc)
		}
	}

	if c.Resolver.Timeout <= 0 {
		add("resolver.timeout must be positive, got %s", c.Resolver.Timeout)
	}
	if c.Resolver.Attempts == 0 {
		add("resolver.attempts must be at least 1")
	}
	if c.Resolver.CacheSize < 0 || c.Resolver.CacheSize > maxCapacity {
		add("resolver.cache_size must be in [0, %d], got %d", maxCapacity, c.Resolver.CacheSize)
	}
	if c.Resolver.CacheTTL < 0 {
		add("resolver.cache_ttl must not be negative, got %s", c.Resolver.CacheTTL)
	}

	if (c.Caller.Latitude == nil) != (c.Caller.Longitude == nil) {
		add("caller: latitude and longitude must be set together")
	} else if loc, ok := c.Caller.Location(); ok && !loc.IsFinite() {
		add("caller: coordinate %s is not finite", loc)
	}

	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
