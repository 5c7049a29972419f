package xlocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

// geoResponse ipapi.co /{ip}/json/ 的响应。
type geoResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// HTTPResolver 通过 HTTP 接口查询 IP 的地理坐标。
//
// 一次 Resolve 的执行顺序：singleflight 合并同一 IP 的并发查询 →
// 熔断器 → 带退避的重试 → GET {endpoint}/{ip}/json/。
// 服务端明确拒绝（4xx、error 载荷）不重试，也不计入熔断失败。
type HTTPResolver struct {
	endpoint string
	client   *http.Client
	retry    []retry.Option
	cb       *gobreaker.CircuitBreaker[xgeo.Coordinate]
	group    singleflight.Group
	logger   *slog.Logger

	// lookupTimeout 合并后的一次查询（含全部重试）的时间上限。
	lookupTimeout time.Duration
}

// NewHTTPResolver 创建解析器，endpoint 为空时使用 DefaultGeoEndpoint。
func NewHTTPResolver(endpoint string, opts ...HTTPOption) (*HTTPResolver, error) {
	if endpoint == "" {
		endpoint = DefaultGeoEndpoint
	}
	base, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	o := applyHTTPOptions(opts)
	r := &HTTPResolver{
		endpoint:      base,
		client:        o.client,
		logger:        o.logger,
		lookupTimeout: lookupBudget(o),
	}
	r.retry = retryOptions(o, r.logger)
	r.cb = gobreaker.NewCircuitBreaker[xgeo.Coordinate](gobreaker.Settings{
		Name:        "xlocate:" + base,
		MaxRequests: 1,
		Timeout:     o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.breakerThreshold
		},
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || errors.As(err, &rejected) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("circuit breaker state changed",
				xlog.Component("xlocate"),
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return r, nil
}

func parseEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// lookupBudget 返回全部尝试及其间隔所需的最长时间。
func lookupBudget(o *httpOptions) time.Duration {
	n := time.Duration(o.attempts)
	return n*o.timeout + o.retryDelay*n*(n-1)/2
}

// retryOptions 构建 retry-go 选项，ctx 在每次调用时追加。
func retryOptions(o *httpOptions, logger *slog.Logger) []retry.Option {
	delay := o.retryDelay
	return []retry.Option{
		retry.Attempts(o.attempts),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return time.Duration(n) * delay
		}),
		retry.RetryIf(retry.IsRecoverable),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying location lookup",
				xlog.Component("xlocate"), slog.Uint64("attempt", uint64(n)+1), xlog.Err(err))
		}),
		retry.LastErrorOnly(true),
	}
}

// Resolve 查询 id（IP 地址）的坐标。
//
// 同一 IP 的并发查询合并为一次请求。请求使用脱离调用方取消链、带独立超时的 ctx，
// 每个调用方只等待自己的 ctx，先放弃的调用方不会让其他等待者失败。
func (r *HTTPResolver) Resolve(ctx context.Context, id string) (xgeo.Coordinate, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(id))
	if err != nil {
		return xgeo.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidAddress, id)
	}
	ip := addr.Unmap().String()

	// 调用方已放弃时不发请求，也不进入熔断器
	if err := ctx.Err(); err != nil {
		return xgeo.Coordinate{}, err
	}

	ch := r.group.DoChan(ip, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()
		return r.lookup(lookupCtx, ip)
	})

	select {
	case <-ctx.Done():
		return xgeo.Coordinate{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return xgeo.Coordinate{}, res.Err
		}
		loc, ok := res.Val.(xgeo.Coordinate)
		if !ok {
			return xgeo.Coordinate{}, fmt.Errorf("%w: unexpected result type %T", ErrLookupFailed, res.Val)
		}
		return loc, nil
	}
}

// lookup 在熔断器内执行带重试的查询。ctx 已结束时直接返回，不计入熔断统计。
func (r *HTTPResolver) lookup(ctx context.Context, ip string) (xgeo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return xgeo.Coordinate{}, err
	}
	loc, err := r.cb.Execute(func() (xgeo.Coordinate, error) {
		opts := append([]retry.Option{retry.Context(ctx)}, r.retry...)
		return retry.NewWithData[xgeo.Coordinate](opts...).Do(func() (xgeo.Coordinate, error) {
			return r.fetch(ctx, ip)
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return xgeo.Coordinate{}, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return loc, err
}

// fetch 执行一次 HTTP 请求。可重试的失败直接返回，其余用 retry.Unrecoverable 包装。
func (r *HTTPResolver) fetch(ctx context.Context, ip string) (xgeo.Coordinate, error) {
	reqURL := r.endpoint + "/" + url.PathEscape(ip) + "/json/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return xgeo.Coordinate{}, retry.Unrecoverable(fmt.Errorf("%w: build request: %w", ErrLookupFailed, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return xgeo.Coordinate{}, retry.Unrecoverable(ctx.Err())
		}
		return xgeo.Coordinate{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // 只读响应

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return xgeo.Coordinate{}, fmt.Errorf("%w: read body: %w", ErrLookupFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return xgeo.Coordinate{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return xgeo.Coordinate{}, retry.Unrecoverable(&RejectedError{
			Address: ip, Status: resp.StatusCode, Reason: reasonOf(body),
		})
	}

	var payload geoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return xgeo.Coordinate{}, retry.Unrecoverable(fmt.Errorf("%w: decode response: %w", ErrLookupFailed, err))
	}
	if payload.Error {
		return xgeo.Coordinate{}, retry.Unrecoverable(&RejectedError{
			Address: ip, Status: resp.StatusCode, Reason: payload.Reason,
		})
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		return xgeo.Coordinate{}, retry.Unrecoverable(fmt.Errorf("%w: response for %s has no coordinates", ErrLookupFailed, ip))
	}
	return xgeo.Coordinate{Latitude: *payload.Latitude, Longitude: *payload.Longitude}, nil
}

// reasonOf 尽量从错误响应中取出 reason 字段。
func reasonOf(body []byte) string {
	var payload geoResponse
	_ = json.Unmarshal(body, &payload) //nolint:errcheck // 解析失败使用零值即可
	return payload.Reason
}

// State 返回熔断器当前状态（closed / half-open / open）。
func (r *HTTPResolver) State() string {
	return r.cb.State().String()
}
