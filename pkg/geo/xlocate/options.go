package xlocate

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultGeoEndpoint ipapi.co 的接口地址。
	DefaultGeoEndpoint = "https://ipapi.co"

	// DefaultIPEndpoint ipify 的双栈接口地址。
	DefaultIPEndpoint = "https://api64.ipify.org"

	// DefaultTimeout 单次 HTTP 请求超时。
	DefaultTimeout = 5 * time.Second

	// DefaultAttempts 总尝试次数（包含首次）。
	DefaultAttempts = 3

	// DefaultRetryDelay 首次重试前的等待时间，之后线性增长。
	DefaultRetryDelay = 200 * time.Millisecond

	// DefaultBreakerThreshold 连续失败多少次后打开熔断器。
	DefaultBreakerThreshold = 5

	// DefaultBreakerTimeout 熔断器打开后多久进入半开状态。
	DefaultBreakerTimeout = 30 * time.Second

	// maxResponseSize 响应体上限。
	maxResponseSize = 1 << 20
)

// HTTPOption 定义 HTTP 组件的可选配置。
type HTTPOption func(*httpOptions)

type httpOptions struct {
	client           *http.Client
	timeout          time.Duration
	attempts         uint
	retryDelay       time.Duration
	breakerThreshold uint32
	breakerTimeout   time.Duration
	logger           *slog.Logger
}

func defaultHTTPOptions() *httpOptions {
	return &httpOptions{
		timeout:          DefaultTimeout,
		attempts:         DefaultAttempts,
		retryDelay:       DefaultRetryDelay,
		breakerThreshold: DefaultBreakerThreshold,
		breakerTimeout:   DefaultBreakerTimeout,
		logger:           slog.Default(),
	}
}

func applyHTTPOptions(opts []HTTPOption) *httpOptions {
	o := defaultHTTPOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	return o
}

// WithHTTPClient 使用自定义 http.Client，此时 WithTimeout 不生效。
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(o *httpOptions) {
		o.client = c
	}
}

// WithTimeout 设置单次请求超时。
func WithTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithAttempts 设置总尝试次数，n 为 0 时忽略。
func WithAttempts(n uint) HTTPOption {
	return func(o *httpOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithRetryDelay 设置重试间隔基数，第 n 次重试等待 n*d。允许为 0。
func WithRetryDelay(d time.Duration) HTTPOption {
	return func(o *httpOptions) {
		if d >= 0 {
			o.retryDelay = d
		}
	}
}

// WithBreaker 设置熔断阈值（连续失败次数）和打开时长。
func WithBreaker(threshold uint32, openTimeout time.Duration) HTTPOption {
	return func(o *httpOptions) {
		if threshold > 0 {
			o.breakerThreshold = threshold
		}
		if openTimeout > 0 {
			o.breakerTimeout = openTimeout
		}
	}
}

// WithLogger 设置日志记录器。
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(o *httpOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
