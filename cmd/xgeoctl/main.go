// xgeoctl 是地理路由缓存的命令行工具。
//
// 用法:
//
//	xgeoctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--log-level    日志级别 debug/info/warn/error (默认: warn)
//	--log-format   日志格式 text/json (默认: text)
//	--log-file     日志文件，按大小轮转；为空时输出到 stderr
//
// 命令:
//
//	distance   计算两个坐标之间的大圆距离（公里）
//	route      给出调用方应路由到的最近节点
//	demo       演示：写入 7 个 key、等待过期、清扫，并打印各节点内容
//
// 退出码:
//
//	0: 成功
//	1: 运行失败（配置无法加载、节点解析失败等）
//	2: 参数错误
//
// 示例:
//
//	xgeoctl distance --from 51.5161,0.0584 --to 32.0803,34.7805
//	xgeoctl route --config xgeo.yaml --at 51.5161,0.0584
//	xgeoctl route --config xgeo.yaml --locate
//	xgeoctl demo
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// usageError 参数错误，对应退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xgeoctl",
		Usage:     "地理路由 LRU/TTL 缓存工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagLogLevel, Usage: "日志级别 debug/info/warn/error", Value: "warn"},
			&cli.StringFlag{Name: flagLogFormat, Usage: "日志格式 text/json", Value: "text"},
			&cli.StringFlag{Name: flagLogFile, Usage: "日志文件（按大小轮转）"},
		},
		Commands: []*cli.Command{
			distanceCommand(),
			routeCommand(),
			demoCommand(),
		},
		// 由 run 统一映射退出码，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var uerr *usageError
	switch {
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "参数错误: %v\n", uerr)
		return 2
	case isCLIUsageError(err):
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
}

// isCLIUsageError 识别 urfave/cli 与 flag 包产生的参数错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"Required flag",
		"flag needs an argument",
		"invalid value",
		"No help topic",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
