package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xgeo/pkg/config/xconf"
	"github.com/omeyang/xgeo/pkg/distributed/xcron"
	"github.com/omeyang/xgeo/pkg/lifecycle/xrun"
	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/observability/xmetrics"
	"github.com/omeyang/xgeo/pkg/storage/xgeocache"
	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

const (
	flagFrom    = "from"
	flagTo      = "to"
	flagAt      = "at"
	flagLocate  = "locate"
	flagWait    = "wait"
	flagMetrics = "metrics"

	demoKeys = 7
)

func distanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "distance",
		Usage:     "计算两个坐标之间的大圆距离（公里）",
		UsageText: "xgeoctl distance --from LAT,LON --to LAT,LON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagFrom, Usage: "起点 LAT,LON", Required: true},
			&cli.StringFlag{Name: flagTo, Usage: "终点 LAT,LON", Required: true},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			from, err := parseCoordinateFlag(cmd, flagFrom)
			if err != nil {
				return err
			}
			to, err := parseCoordinateFlag(cmd, flagTo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "%.3f km\n", from.DistanceTo(to))
			return nil
		},
	}
}

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "给出调用方应路由到的最近节点",
		UsageText: "xgeoctl route --config FILE [--at LAT,LON | --locate]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "配置文件（yaml/json）", Required: true},
			&cli.StringFlag{Name: flagAt, Usage: "调用方坐标 LAT,LON"},
			&cli.BoolFlag{Name: flagLocate, Usage: "通过公网 IP 在线定位调用方"},
		},
		Action: runRoute,
	}
}

func runRoute(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet(flagAt) && cmd.Bool(flagLocate) {
		return usagef("--%s and --%s are mutually exclusive", flagAt, flagLocate)
	}
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	caller, err := resolveCaller(ctx, cmd, rt)
	if err != nil {
		return err
	}
	cache, err := rt.newCache(ctx)
	if err != nil {
		return err
	}
	node, err := cache.NearestNode(caller)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "caller:   %s\n", caller)
	fmt.Fprintf(w, "node:     %s\n", node.ID)
	fmt.Fprintf(w, "location: %s\n", node.Location)
	fmt.Fprintf(w, "distance: %.3f km\n", caller.DistanceTo(node.Location))
	for _, le := range cache.Excluded() {
		fmt.Fprintf(w, "excluded: %s (%v)\n", le.Node, le.Err)
	}
	return nil
}

// resolveCaller 依次使用 --at、--locate、配置中的 caller。
func resolveCaller(ctx context.Context, cmd *cli.Command, rt *runtime) (xgeo.Coordinate, error) {
	if cmd.IsSet(flagAt) {
		return parseCoordinateFlag(cmd, flagAt)
	}
	if cmd.Bool(flagLocate) {
		return locateCaller(ctx, rt)
	}
	if loc, ok := rt.cfg.Caller.Location(); ok {
		return loc, nil
	}
	return xgeo.Coordinate{}, usagef("caller location unknown: use --%s, --%s or set caller in config", flagAt, flagLocate)
}

func locateCaller(ctx context.Context, rt *runtime) (xgeo.Coordinate, error) {
	locator, err := rt.callerLocator()
	if err != nil {
		return xgeo.Coordinate{}, err
	}
	loc, err := locator.Locate(ctx)
	if err != nil {
		return xgeo.Coordinate{}, fmt.Errorf("locate caller: %w", err)
	}
	return loc, nil
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "演示：写入 7 个 key、等待过期、清扫，并打印各节点内容",
		Description: "未指定 --config 时使用内置配置：容量 4、TTL 3s、两个节点，调用方位于伦敦。\n" +
			"清扫任务由调度器按 cache.sweep_interval 周期执行，等待结束后再做一次最终清扫。",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "配置文件（yaml/json）"},
			&cli.BoolFlag{Name: flagLocate, Usage: "通过公网 IP 在线定位调用方"},
			&cli.DurationFlag{Name: flagWait, Usage: "写入后等待的时间（默认 2 倍 TTL）"},
			&cli.BoolFlag{Name: flagMetrics, Usage: "结束时打印缓存指标"},
		},
		Action: runDemo,
	}
}

// demoConfig 内置演示配置。
func demoConfig() *xconf.Config {
	cfg := xconf.Default()
	cfg.Cache.Capacity = 4
	cfg.Cache.TTL = 3 * time.Second
	cfg.Cache.SweepInterval = time.Second
	cfg.Nodes = []xconf.NodeConfig{
		{ID: "172.217.22.14", Latitude: ptr(32.0803), Longitude: ptr(34.7805)},
		{ID: "208.67.222.222", Latitude: ptr(37.774778), Longitude: ptr(-122.397966)},
	}
	cfg.Caller = xconf.CallerConfig{Latitude: ptr(51.5161), Longitude: ptr(0.0584)}
	return cfg
}

func ptr[T any](v T) *T { return &v }

func runDemo(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, demoConfig)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var (
		recorder xmetrics.Recorder = xmetrics.NoopRecorder{}
		reader   *sdkmetric.ManualReader
	)
	if cmd.Bool(flagMetrics) {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		rt.closers = append(rt.closers, func() error { return provider.Shutdown(context.Background()) })
		if recorder, err = xmetrics.NewOTelRecorder(xmetrics.WithMeterProvider(provider)); err != nil {
			return err
		}
	}

	caller, err := resolveCaller(ctx, cmd, rt)
	if err != nil {
		return err
	}
	cache, err := rt.newCache(ctx, xgeocache.WithMetrics(recorder))
	if err != nil {
		return err
	}

	wait := cmd.Duration(flagWait)
	if wait <= 0 {
		wait = 2 * cfg.Cache.TTL
	}

	var removed atomic.Int64
	sched := xcron.New(xcron.WithLogger(rt.logger))
	if _, err := sched.AddFunc("@every "+cfg.Cache.SweepInterval.String(), func(context.Context) error {
		if n := cache.DeleteExpired(); n > 0 {
			removed.Add(int64(n))
			rt.logger.Info("expired entries swept", xlog.Count(n))
		}
		return nil
	}, xcron.WithName("sweep")); err != nil {
		return err
	}

	w := cmd.Root().Writer
	sched.Start()
	sweeper := func(ctx context.Context) error {
		<-ctx.Done()
		<-sched.Stop().Done()
		return nil
	}
	scenario := func(ctx context.Context) error {
		defer sched.Stop()
		if err := writeDemoKeys(w, cache, caller); err != nil {
			return err
		}
		printNodes(w, "before sweep", cache)

		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		// 先停调度，保证计数不再变化
		<-sched.Stop().Done()
		removed.Add(int64(cache.DeleteExpired()))
		fmt.Fprintf(w, "removed: %d\n", removed.Load())
		printNodes(w, "after sweep", cache)
		return xrun.ErrDone
	}

	if err := xrun.RunWithOptions(ctx, []xrun.Option{
		xrun.WithLogger(rt.logger),
		xrun.WithName("demo"),
	}, sweeper, scenario); err != nil {
		return err
	}

	if reader != nil {
		return printMetrics(ctx, w, reader)
	}
	return nil
}

func writeDemoKeys(w io.Writer, cache *xgeocache.Cache[string, string], caller xgeo.Coordinate) error {
	node, err := cache.NearestNode(caller)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "caller %s -> node %s (%.3f km)\n", caller, node.ID, caller.DistanceTo(node.Location))

	for i := range demoKeys {
		key := fmt.Sprintf("key%d", i)
		if err := cache.Set(caller, key, fmt.Sprintf("value%d", i)); err != nil {
			return err
		}
	}
	// key0 已被容量淘汰
	if _, ok, err := cache.Get(caller, "key0"); err != nil {
		return err
	} else if ok {
		return errors.New("key0 should have been evicted")
	}
	return nil
}

func printNodes(w io.Writer, title string, cache *xgeocache.Cache[string, string]) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, n := range cache.Nodes() {
		keys, _ := cache.Keys(n.ID)
		fmt.Fprintf(w, "  %s [%s]\n", n.ID, strings.Join(keys, " "))
	}
}

// printMetrics 输出 ManualReader 收集到的计数器与直方图。
func printMetrics(ctx context.Context, w io.Writer, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} %d", m.Name, formatAttrs(dp.Attributes), dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} count=%d sum=%.3f", m.Name, formatAttrs(dp.Attributes), dp.Count, dp.Sum))
				}
			}
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, "metrics:")
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	return nil
}

func formatAttrs(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	for _, kv := range set.ToSlice() {
		parts = append(parts, fmt.Sprintf("%s=%s", kv.Key, kv.Value.Emit()))
	}
	return strings.Join(parts, ",")
}

func parseCoordinateFlag(cmd *cli.Command, name string) (xgeo.Coordinate, error) {
	c, err := xgeo.ParseCoordinate(cmd.String(name))
	if err != nil {
		return xgeo.Coordinate{}, usagef("--%s: %v", name, err)
	}
	return c, nil
}
