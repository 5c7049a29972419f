package xrun

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quiet() Option { return WithLogger(xlog.Discard()) }

func TestGroup_ErrorCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	g, _ := NewGroup(context.Background(), quiet())

	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.GoWithName("failing", func(context.Context) error { return boom })

	assert.ErrorIs(t, g.Wait(), boom)
}

func TestGroup_AllSucceed(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(func(context.Context) error { return nil })
	g.Go(func(context.Context) error { return nil })
	assert.NoError(t, g.Wait())
}

func TestGroup_DoneEndsGroup(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Go(func(context.Context) error { return ErrDone })
	assert.NoError(t, g.Wait())
}

func TestGroup_CancelCause(t *testing.T) {
	reason := errors.New("shutdown requested")
	g, ctx := NewGroup(context.Background(), quiet())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	g.Cancel(reason)

	assert.ErrorIs(t, g.Wait(), reason)
	assert.Error(t, ctx.Err())
	assert.Equal(t, ctx, g.Context())
}

func TestGroup_CancelWithoutCause(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Cancel(nil)
	assert.NoError(t, g.Wait())
}

func TestGroup_InternalCanceledIsReported(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(nil, quiet()) //nolint:staticcheck // 验证 nil ctx 归一化
	g.Go(nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

func TestRun_Signal(t *testing.T) {
	sigc := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), sigc)

	done := make(chan error, 1)
	go func() {
		done <- RunWithOptions(ctx, []Option{quiet(), WithName("test")}, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	sigc <- syscall.SIGTERM
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrSignal)
		var sigErr *SignalError
		require.True(t, errors.As(err, &sigErr))
		assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
		assert.Equal(t, "received signal terminated", sigErr.Error())
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after signal")
	}
}

func TestRun_FinishesWithDone(t *testing.T) {
	err := RunWithOptions(context.Background(), []Option{quiet(), WithSignals([]os.Signal{syscall.SIGUSR1})},
		func(context.Context) error { return ErrDone },
	)
	assert.NoError(t, err)
}

func TestRun_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestRun_WithoutSignalHandler(t *testing.T) {
	err := RunWithOptions(context.Background(), []Option{quiet(), WithoutSignalHandler()},
		func(context.Context) error { return nil },
	)
	assert.NoError(t, err)
}

func TestSignalError_Nil(t *testing.T) {
	assert.Equal(t, "received signal <nil>", (&SignalError{}).Error())
	assert.Len(t, DefaultSignals(), 4)
}
