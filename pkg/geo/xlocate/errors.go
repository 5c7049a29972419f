package xlocate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownID 静态表中没有该 ID。
	ErrUnknownID = errors.New("xlocate: unknown id")

	// ErrInvalidAddress ID 不是合法的 IP 地址。
	ErrInvalidAddress = errors.New("xlocate: invalid ip address")

	// ErrInvalidEndpoint 接口地址缺少协议或主机。
	ErrInvalidEndpoint = errors.New("xlocate: endpoint must include scheme and host")

	// ErrLookupFailed 远程查询失败（网络错误、非 2xx 响应、错误载荷或缺少坐标）。
	ErrLookupFailed = errors.New("xlocate: lookup failed")

	// ErrCircuitOpen 熔断器处于打开状态，请求被直接拒绝。
	ErrCircuitOpen = errors.New("xlocate: circuit open")

	// ErrNilResolver 传入的解析器为 nil。
	ErrNilResolver = errors.New("xlocate: nil resolver")

	// ErrNoResolvers Chain 中没有解析器。
	ErrNoResolvers = errors.New("xlocate: no resolvers")
)

// RejectedError 表示服务端明确拒绝了查询（4xx 或 error 载荷），不会重试，也不计入熔断。
type RejectedError struct {
	Address string
	Status  int
	Reason  string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("xlocate: lookup %s rejected: status %d", e.Address, e.Status)
	}
	return fmt.Sprintf("xlocate: lookup %s rejected: status %d: %s", e.Address, e.Status, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrLookupFailed) 成立。
func (e *RejectedError) Unwrap() error { return ErrLookupFailed }
