package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
)

// Group 管理一组共享取消信号的 goroutine。Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 ctx 在任一函数出错或 Cancel 后被取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: o}, egCtx
}

// Go 启动 fn。fn 返回非 nil 错误时取消其他函数。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.GoWithName("", fn)
}

// GoWithName 与 Go 相同，并在日志中记录名称。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrDone) {
			g.opts.logger.LogAttrs(g.causeCtx, slog.LevelWarn, "service exited with error",
				slog.String("group", g.opts.name), slog.String("service", name), xlog.Err(err))
		}
		return err
	})
}

// Wait 等待所有函数结束，返回第一个有意义的错误。
//
//   - context.Canceled 和 ErrDone 被过滤
//   - Cancel(cause) 或信号设置的原因会被返回，即使所有函数都返回 nil
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	if errors.Is(err, ErrDone) {
		err = nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil && g.causeCtx.Err() == nil {
		// 函数内部产生的 Canceled，不是 Group 取消导致的
		return err
	}
	if g.causeCtx.Err() != nil {
		if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
	}
	return nil
}

// Cancel 取消所有函数，cause 不为 nil 时由 Wait 返回。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 ctx。
func (g *Group) Context() context.Context {
	return g.ctx
}

// Run 运行 fns 并监听默认信号，收到信号时 Wait 返回 *SignalError。
func Run(ctx context.Context, fns ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, fns...)
}

// RunWithOptions 与 Run 相同，但支持配置选项。
func RunWithOptions(ctx context.Context, opts []Option, fns ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignalHandler {
		g.GoWithName("signal", g.watchSignals)
	}
	for _, fn := range fns {
		g.Go(fn)
	}
	return g.Wait()
}

func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-testSigChan(ctx):
	case sig = <-sigCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.LogAttrs(ctx, slog.LevelInfo, "received signal",
		slog.String("group", g.opts.name), slog.String("signal", sig.String()))
	g.cancel(&SignalError{Signal: sig})
	return nil
}
