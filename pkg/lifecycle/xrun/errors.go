package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 表示因收到系统信号而终止，配合 errors.Is 使用。
	ErrSignal = errors.New("received signal")

	// ErrNilFunc 表示传入的函数为 nil。
	ErrNilFunc = errors.New("xrun: nil func")

	// ErrDone 由主动结束的函数返回，用于让整个 Group 正常退出。
	// Wait 会把它过滤为 nil。
	ErrDone = errors.New("xrun: done")
)

// SignalError 记录触发退出的信号，errors.Is(err, ErrSignal) 成立。
type SignalError struct {
	Signal os.Signal
}

// Error 实现 error 接口。
func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Unwrap 返回 ErrSignal。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
