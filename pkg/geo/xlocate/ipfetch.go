package xlocate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"

	retry "github.com/avast/retry-go/v5"
)

// IPFetcher 查询本机的公网 IP，响应格式为 {"ip": "..."}。
type IPFetcher struct {
	endpoint string
	client   *http.Client
	retry    []retry.Option
}

// NewIPFetcher 创建查询器，endpoint 为空时使用 DefaultIPEndpoint。
// 熔断相关选项对 IPFetcher 无效。
func NewIPFetcher(endpoint string, opts ...HTTPOption) (*IPFetcher, error) {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	base, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	o := applyHTTPOptions(opts)
	return &IPFetcher{
		endpoint: base,
		client:   o.client,
		retry:    retryOptions(o, o.logger),
	}, nil
}

// PublicIP 返回公网 IP。
func (f *IPFetcher) PublicIP(ctx context.Context) (netip.Addr, error) {
	opts := append([]retry.Option{retry.Context(ctx)}, f.retry...)
	return retry.NewWithData[netip.Addr](opts...).Do(func() (netip.Addr, error) {
		return f.fetch(ctx)
	})
}

func (f *IPFetcher) fetch(ctx context.Context) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?format=json", nil)
	if err != nil {
		return netip.Addr{}, retry.Unrecoverable(fmt.Errorf("%w: build request: %w", ErrLookupFailed, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return netip.Addr{}, retry.Unrecoverable(ctx.Err())
		}
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // 只读响应

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: public ip: status %d", ErrLookupFailed, resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return netip.Addr{}, err
		}
		return netip.Addr{}, retry.Unrecoverable(err)
	}

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payload); err != nil {
		return netip.Addr{}, retry.Unrecoverable(fmt.Errorf("%w: decode public ip: %w", ErrLookupFailed, err))
	}
	addr, err := netip.ParseAddr(payload.IP)
	if err != nil {
		return netip.Addr{}, retry.Unrecoverable(fmt.Errorf("%w: %q", ErrInvalidAddress, payload.IP))
	}
	return addr, nil
}
