package xgeocache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/omeyang/xgeo/pkg/observability/xlog"
	"github.com/omeyang/xgeo/pkg/storage/xgeocache"
	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

func Example() {
	table := map[string]xgeo.Coordinate{
		"172.217.22.14":  {Latitude: 32.0803, Longitude: 34.7805},
		"208.67.222.222": {Latitude: 37.774778, Longitude: -122.397966},
	}
	resolver := xgeocache.ResolverFunc(func(_ context.Context, id string) (xgeo.Coordinate, error) {
		return table[id], nil
	})

	clock := clockwork.NewFakeClock()
	cache, err := xgeocache.New[string, int](context.Background(), xgeocache.Config{
		Nodes:    []string{"172.217.22.14", "208.67.222.222"},
		Capacity: 4,
		TTL:      3 * time.Second,
	}, resolver, xgeocache.WithClock(clock), xgeocache.WithLogger(xlog.Discard()))
	if err != nil {
		fmt.Println(err)
		return
	}

	caller := xgeo.Coordinate{Latitude: 51.5161, Longitude: 0.0584}
	for i := range 7 {
		_ = cache.Set(caller, fmt.Sprintf("key%d", i), i)
	}

	node, _ := cache.NearestNode(caller)
	keys, _ := cache.Keys(node.ID)
	fmt.Println(node.ID, keys)

	clock.Advance(6 * time.Second)
	fmt.Println("swept:", cache.DeleteExpired())
	// Output:
	// 172.217.22.14 [key3 key4 key5 key6]
	// swept: 4
}

func ExampleCache_Get() {
	resolver := xgeocache.ResolverFunc(func(context.Context, string) (xgeo.Coordinate, error) {
		return xgeo.Coordinate{}, nil
	})
	cache, _ := xgeocache.New[string, string](context.Background(), xgeocache.Config{
		Nodes: []string{"origin"}, Capacity: 2, TTL: time.Minute,
	}, resolver, xgeocache.WithLogger(xlog.Discard()))

	here := xgeo.Coordinate{Latitude: 1, Longitude: 1}
	_ = cache.Set(here, "greeting", "hello")

	v, ok, _ := cache.Get(here, "greeting")
	fmt.Println(v, ok)
	_, ok, _ = cache.Get(here, "missing")
	fmt.Println(ok)
	// Output:
	// hello true
	// false
}
