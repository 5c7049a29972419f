package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xgeo/pkg/config/xconf"
	"github.com/omeyang/xgeo/pkg/geo/xlocate"
	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/storage/xgeocache"
)

const (
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagLogFile   = "log-file"
	flagConfig    = "config"
)

// runtime 一次命令执行期间共享的组件，close 释放所有资源。
type runtime struct {
	cfg     *xconf.Config
	logger  *slog.Logger
	closers []func() error

	geo xlocate.Resolver // 在线解析器，按需创建
}

// newRuntime 构建日志。命令行显式给出的日志参数优先于配置文件。
func newRuntime(cmd *cli.Command, cfg *xconf.Config) (*runtime, error) {
	level, format, file := cfg.Log.Level, cfg.Log.Format, cfg.Log.File
	root := cmd.Root()
	if root.IsSet(flagLogLevel) || level == "" {
		level = root.String(flagLogLevel)
	}
	if root.IsSet(flagLogFormat) || format == "" {
		format = root.String(flagLogFormat)
	}
	if root.IsSet(flagLogFile) {
		file = root.String(flagLogFile)
	}

	logger, _, cleanup, err := xlog.New().
		SetOutput(root.ErrWriter).
		SetLevelString(level).
		SetFormat(format).
		SetRotation(file).
		SetAttrs(slog.String("app", "xgeoctl")).
		Build()
	if err != nil {
		return nil, usagef("logger: %v", err)
	}
	return &runtime{cfg: cfg, logger: logger, closers: []func() error{cleanup}}, nil
}

// geoResolver 返回在线地理位置解析器，cache_size > 0 时带记忆化。
func (r *runtime) geoResolver() (xlocate.Resolver, error) {
	if r.geo != nil {
		return r.geo, nil
	}
	rc := r.cfg.Resolver
	httpResolver, err := xlocate.NewHTTPResolver(rc.Endpoint,
		xlocate.WithTimeout(rc.Timeout),
		xlocate.WithAttempts(rc.Attempts),
		xlocate.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}
	r.geo = httpResolver
	if rc.CacheSize > 0 {
		cached, err := xlocate.NewCached(httpResolver, rc.CacheSize, rc.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("resolver cache: %w", err)
		}
		r.closers = append(r.closers, func() error { cached.Close(); return nil })
		r.geo = cached
	}
	return r.geo, nil
}

// nodeResolver 先查配置中的静态坐标，其余节点走在线解析。
func (r *runtime) nodeResolver() (xgeocache.Resolver, error) {
	static := xlocate.NewStatic(r.cfg.StaticLocations())
	if !r.cfg.NeedsResolver() {
		return static, nil
	}
	geo, err := r.geoResolver()
	if err != nil {
		return nil, err
	}
	return xlocate.NewChain(static, geo)
}

// callerLocator 通过公网 IP 定位调用方。
func (r *runtime) callerLocator() (*xlocate.CallerLocator, error) {
	geo, err := r.geoResolver()
	if err != nil {
		return nil, err
	}
	fetcher, err := xlocate.NewIPFetcher(r.cfg.Resolver.IPEndpoint,
		xlocate.WithTimeout(r.cfg.Resolver.Timeout),
		xlocate.WithAttempts(r.cfg.Resolver.Attempts),
		xlocate.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}
	return xlocate.NewCallerLocator(fetcher, geo)
}

// newCache 按配置创建缓存。
func (r *runtime) newCache(ctx context.Context, opts ...xgeocache.Option) (*xgeocache.Cache[string, string], error) {
	resolver, err := r.nodeResolver()
	if err != nil {
		return nil, err
	}
	opts = append([]xgeocache.Option{xgeocache.WithLogger(r.logger)}, opts...)
	return xgeocache.New[string, string](ctx, xgeocache.Config{
		Nodes:    r.cfg.NodeIDs(),
		Capacity: r.cfg.Cache.Capacity,
		TTL:      r.cfg.Cache.TTL,
	}, resolver, opts...)
}

// close 逆序释放资源，日志文件最后关闭。
func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && i > 0 {
			r.logger.Warn("close failed", xlog.Err(err))
		}
	}
}

// loadConfig 读取 --config，未给出时返回 fallback。
func loadConfig(cmd *cli.Command, fallback func() *xconf.Config) (*xconf.Config, error) {
	path := cmd.String(flagConfig)
	if path == "" {
		if fallback == nil {
			return nil, usagef("--%s is required", flagConfig)
		}
		return fallback(), nil
	}
	return xconf.Load(path)
}
