package xlocate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

func fastOptions(extra ...HTTPOption) []HTTPOption {
	return append([]HTTPOption{WithRetryDelay(0), WithLogger(xlog.Discard())}, extra...)
}

func TestNewHTTPResolver_InvalidEndpoint(t *testing.T) {
	for _, ep := range []string{"ipapi.co", "://bad", "/path/only"} {
		_, err := NewHTTPResolver(ep)
		assert.ErrorIs(t, err, ErrInvalidEndpoint, ep)
	}
}

func TestHTTPResolver_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/172.217.22.14/json/", r.URL.Path)
		fmt.Fprint(w, `{"ip":"172.217.22.14","latitude":32.0803,"longitude":34.7805}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL+"/", fastOptions()...)
	require.NoError(t, err)

	loc, err := r.Resolve(context.Background(), " 172.217.22.14 ")
	require.NoError(t, err)
	assert.Equal(t, telAviv, loc)
	assert.Equal(t, "closed", r.State())
}

func TestHTTPResolver_InvalidAddress(t *testing.T) {
	r, err := NewHTTPResolver("http://127.0.0.1:1", fastOptions()...)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestHTTPResolver_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"latitude":1.5,"longitude":-2.5}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions(WithAttempts(3))...)
	require.NoError(t, err)

	loc, err := r.Resolve(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, loc.Latitude, 1e-9)
	assert.InDelta(t, -2.5, loc.Longitude, 1e-9)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPResolver_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions(WithAttempts(2))...)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPResolver_RejectionsAreNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error payload", http.StatusOK, `{"ip":"10.0.0.1","error":true,"reason":"Reserved IP Address"}`, "Reserved IP Address"},
		{"not found", http.StatusNotFound, `{"error":true,"reason":"Not Found"}`, "status 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			r, err := NewHTTPResolver(srv.URL, fastOptions(WithAttempts(5))...)
			require.NoError(t, err)

			_, err = r.Resolve(context.Background(), "10.0.0.1")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLookupFailed)
			var rejected *RejectedError
			require.True(t, errors.As(err, &rejected))
			assert.Equal(t, "10.0.0.1", rejected.Address)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestHTTPResolver_MissingCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ip":"8.8.8.8","latitude":12.5}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions()...)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestHTTPResolver_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions(WithAttempts(1), WithBreaker(2, time.Minute))...)
	require.NoError(t, err)

	for range 2 {
		_, err = r.Resolve(context.Background(), "8.8.8.8")
		assert.ErrorIs(t, err, ErrLookupFailed)
	}
	assert.Equal(t, "open", r.State())

	_, err = r.Resolve(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "熔断打开后不再发出请求")
}

func TestHTTPResolver_RejectionsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error":true,"reason":"Reserved IP Address"}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions(WithBreaker(1, time.Minute))...)
	require.NoError(t, err)

	for range 3 {
		_, err = r.Resolve(context.Background(), "10.0.0.1")
		var rejected *RejectedError
		assert.True(t, errors.As(err, &rejected))
	}
	assert.Equal(t, "closed", r.State())
}

func TestHTTPResolver_SingleflightDedupes(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		fmt.Fprint(w, `{"latitude":1,"longitude":2}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions()...)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			loc, err := r.Resolve(context.Background(), "8.8.8.8")
			assert.NoError(t, err)
			assert.InDelta(t, 1.0, loc.Latitude, 1e-9)
		}()
	}
	for range n {
		<-started
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestHTTPResolver_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	// 后台查询在调用方放弃后继续，用短超时让它尽快结束
	r, err := NewHTTPResolver(srv.URL, fastOptions(WithAttempts(2), WithTimeout(100*time.Millisecond))...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Resolve(ctx, "8.8.8.8")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "closed", r.State())
}

func TestHTTPResolver_WaiterSurvivesFirstCallerCancel(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		fmt.Fprint(w, `{"latitude":1,"longitude":2}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions()...)
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctxA, "8.8.8.8")
		errA <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		loc xgeo.Coordinate
		err error
	}
	resB := make(chan result, 1)
	go func() {
		loc, err := r.Resolve(context.Background(), "8.8.8.8")
		resB <- result{loc, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	got := <-resB
	require.NoError(t, got.err)
	assert.InDelta(t, 1.0, got.loc.Latitude, 1e-9)
	assert.InDelta(t, 2.0, got.loc.Longitude, 1e-9)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPResolver_ExpiredCallerDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"latitude":1,"longitude":2}`)
	}))
	defer srv.Close()

	r, err := NewHTTPResolver(srv.URL, fastOptions(WithBreaker(2, time.Minute))...)
	require.NoError(t, err)

	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	for range 3 {
		_, err = r.Resolve(expired, "8.8.8.8")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, "closed", r.State())
	assert.Zero(t, calls.Load(), "已过期的调用方不应发出请求")

	loc, err := r.Resolve(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, loc.Latitude, 1e-9)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookupBudget(t *testing.T) {
	o := defaultHTTPOptions()
	o.attempts = 3
	o.timeout = time.Second
	o.retryDelay = 100 * time.Millisecond
	// 3 次请求 + 第 1、2 次重试前的等待
	assert.Equal(t, 3*time.Second+300*time.Millisecond, lookupBudget(o))
}

func TestIPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprint(w, `{"ip":"2001:db8::1"}`)
	}))
	defer srv.Close()

	f, err := NewIPFetcher(srv.URL, fastOptions()...)
	require.NoError(t, err)

	ip, err := f.PublicIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", ip.String())
}

func TestIPFetcher_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ip":"nope"}`)
	}))
	defer srv.Close()

	f, err := NewIPFetcher(srv.URL, fastOptions()...)
	require.NoError(t, err)

	_, err = f.PublicIP(context.Background())
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestCallerLocator(t *testing.T) {
	ipSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ip":"81.2.69.160"}`)
	}))
	defer ipSrv.Close()
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/81.2.69.160/json/", r.URL.Path)
		fmt.Fprint(w, `{"latitude":51.5161,"longitude":0.0584}`)
	}))
	defer geoSrv.Close()

	f, err := NewIPFetcher(ipSrv.URL, fastOptions()...)
	require.NoError(t, err)
	r, err := NewHTTPResolver(geoSrv.URL, fastOptions()...)
	require.NoError(t, err)
	l, err := NewCallerLocator(f, r)
	require.NoError(t, err)

	loc, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 51.5161, loc.Latitude, 1e-9)
	assert.InDelta(t, 0.0584, loc.Longitude, 1e-9)

	_, err = NewCallerLocator(nil, r)
	assert.ErrorIs(t, err, ErrNilResolver)
}
