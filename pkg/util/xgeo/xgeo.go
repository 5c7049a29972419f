package xgeo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm 地球平均半径（千米）。
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate 表示坐标字符串无法解析。
var ErrInvalidCoordinate = errors.New("xgeo: invalid coordinate")

// Coordinate 地理坐标，单位为度。
type Coordinate struct {
	Latitude  float64 `json:"latitude" koanf:"latitude"`
	Longitude float64 `json:"longitude" koanf:"longitude"`
}

// String 返回 "lat,lon" 形式，与 [ParseCoordinate] 互逆。
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Valid 报告坐标是否落在常规取值范围内，且不是 NaN/Inf。
func (c Coordinate) Valid() bool {
	if !c.IsFinite() {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// IsFinite 报告经纬度是否都是有限数（非 NaN/Inf）。
// 与 Valid 不同，它不检查取值范围。
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		!math.IsInf(c.Latitude, 0) && !math.IsInf(c.Longitude, 0)
}

// DistanceTo 返回到 other 的大圆距离（千米）。
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return Distance(c.Latitude, c.Longitude, other.Latitude, other.Longitude)
}

// Distance 使用 haversine 公式计算两点间的大圆距离（千米）。
// 参数均以度为单位。
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// 浮点误差可能让 a 略微越过 [0, 1]，sqrt(1-a) 会变成 NaN
	a = math.Min(math.Max(a, 0), 1)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ParseCoordinate 解析 "lat,lon" 形式的坐标字符串，允许两侧空白。
func ParseCoordinate(s string) (Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %q: want \"lat,lon\"", ErrInvalidCoordinate, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q: %w", ErrInvalidCoordinate, latStr, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q: %w", ErrInvalidCoordinate, lonStr, err)
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
