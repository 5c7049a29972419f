package xlocate

import (
	"context"
	"fmt"

	"github.com/omeyang/xgeo/pkg/util/xgeo"
)

// CallerLocator 组合公网 IP 查询和地理位置解析，得到调用方坐标。
type CallerLocator struct {
	fetcher  *IPFetcher
	resolver Resolver
}

// NewCallerLocator 创建定位器。
func NewCallerLocator(fetcher *IPFetcher, resolver Resolver) (*CallerLocator, error) {
	if fetcher == nil || resolver == nil {
		return nil, ErrNilResolver
	}
	return &CallerLocator{fetcher: fetcher, resolver: resolver}, nil
}

// Locate 返回调用方的坐标。
func (l *CallerLocator) Locate(ctx context.Context) (xgeo.Coordinate, error) {
	ip, err := l.fetcher.PublicIP(ctx)
	if err != nil {
		return xgeo.Coordinate{}, fmt.Errorf("xlocate: fetch public ip: %w", err)
	}
	loc, err := l.resolver.Resolve(ctx, ip.String())
	if err != nil {
		return xgeo.Coordinate{}, fmt.Errorf("xlocate: locate %s: %w", ip, err)
	}
	return loc, nil
}
