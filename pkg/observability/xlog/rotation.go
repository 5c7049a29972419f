package xlog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转默认值。
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
)

type rotationConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
}

// RotationOption 日志轮转选项。
type RotationOption func(*rotationConfig)

// WithMaxSizeMB 设置单个文件最大体积（MB），须 > 0。
func WithMaxSizeMB(n int) RotationOption {
	return func(c *rotationConfig) { c.maxSizeMB = n }
}

// WithMaxBackups 设置保留的历史文件数，0 表示不限。
func WithMaxBackups(n int) RotationOption {
	return func(c *rotationConfig) { c.maxBackups = n }
}

// WithMaxAgeDays 设置历史文件保留天数，0 表示不限。
func WithMaxAgeDays(n int) RotationOption {
	return func(c *rotationConfig) { c.maxAgeDays = n }
}

// WithCompress 设置是否 gzip 压缩历史文件。
func WithCompress(enable bool) RotationOption {
	return func(c *rotationConfig) { c.compress = enable }
}

// newRotator 创建 lumberjack 轮转器，父目录不存在时自动创建（0750）。
func newRotator(filename string, opts ...RotationOption) (*lumberjack.Logger, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := rotationConfig{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.maxSizeMB <= 0 {
		return nil, fmt.Errorf("%w: max size %d MB", ErrInvalidRotation, cfg.maxSizeMB)
	}
	if cfg.maxBackups < 0 || cfg.maxAgeDays < 0 {
		return nil, fmt.Errorf("%w: backups %d, age %d days", ErrInvalidRotation, cfg.maxBackups, cfg.maxAgeDays)
	}

	path := filepath.Clean(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xlog: create log dir: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.maxSizeMB,
		MaxBackups: cfg.maxBackups,
		MaxAge:     cfg.maxAgeDays,
		Compress:   cfg.compress,
		LocalTime:  true,
	}, nil
}
