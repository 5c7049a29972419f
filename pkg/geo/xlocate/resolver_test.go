package xlocate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

var telAviv = xgeo.Coordinate{Latitude: 32.0803, Longitude: 34.7805}

type countingResolver struct {
	calls int
	loc   xgeo.Coordinate
	err   error
}

func (c *countingResolver) Resolve(context.Context, string) (xgeo.Coordinate, error) {
	c.calls++
	return c.loc, c.err
}

func TestStatic(t *testing.T) {
	table := map[string]xgeo.Coordinate{"172.217.22.14": telAviv}
	s := NewStatic(table)
	table["other"] = xgeo.Coordinate{} // 构造后修改原表不影响解析器

	loc, err := s.Resolve(context.Background(), "172.217.22.14")
	require.NoError(t, err)
	assert.Equal(t, telAviv, loc)
	assert.Equal(t, 1, s.Len())

	_, err = s.Resolve(context.Background(), "other")
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestChain(t *testing.T) {
	failing := &countingResolver{err: errors.New("boom")}
	ok := &countingResolver{loc: telAviv}

	c, err := NewChain(nil, failing, ok)
	require.NoError(t, err)

	loc, err := c.Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, telAviv, loc)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestChain_AllFail(t *testing.T) {
	first := errors.New("first")
	c, err := NewChain(&countingResolver{err: first}, NewStatic(nil))
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestChain_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := &countingResolver{loc: telAviv}
	c, err := NewChain(&countingResolver{err: errors.New("x")}, second)
	require.NoError(t, err)

	_, err = c.Resolve(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, second.calls)
}

func TestNewChain_Empty(t *testing.T) {
	_, err := NewChain(nil)
	assert.ErrorIs(t, err, ErrNoResolvers)
}

func TestCached(t *testing.T) {
	next := &countingResolver{loc: telAviv}
	c, err := NewCached(next, 8, 0)
	require.NoError(t, err)
	defer c.Close()

	for range 3 {
		loc, err := c.Resolve(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, telAviv, loc)
	}
	assert.Equal(t, 1, next.calls)
	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)

	assert.True(t, c.Forget("1.2.3.4"))
	_, err = c.Resolve(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	next := &countingResolver{err: ErrLookupFailed}
	c, err := NewCached(next, 8, 0)
	require.NoError(t, err)
	defer c.Close()

	for range 2 {
		_, err := c.Resolve(context.Background(), "1.2.3.4")
		assert.ErrorIs(t, err, ErrLookupFailed)
	}
	assert.Equal(t, 2, next.calls)
}

func TestNewCached_Invalid(t *testing.T) {
	_, err := NewCached(nil, 1, 0)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewCached(&countingResolver{}, 0, 0)
	assert.Error(t, err)
}
