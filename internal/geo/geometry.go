package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const earthRadiusMeters = 6371000

// ErrNoPosition is returned when a coordinate pair is missing or blank
var ErrNoPosition = errors.New("no position")

// Point is a WGS84 coordinate in degrees
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Haversine calculates the great-circle distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// DistanceTo returns meters from p to q
func (p Point) DistanceTo(q Point) float64 {
	return Haversine(p.Lat, p.Lng, q.Lat, q.Lng)
}

// ParsePoint parses the string coordinates stored on buses.
// Nil or blank values give ErrNoPosition; out-of-range values are an error.
func ParsePoint(lat, lng *string) (Point, error) {
	if lat == nil || lng == nil || strings.TrimSpace(*lat) == "" || strings.TrimSpace(*lng) == "" {
		return Point{}, ErrNoPosition
	}
	return ParseCoordinates(*lat, *lng)
}

// ParseCoordinates parses a latitude/longitude pair given as decimal degree strings
func ParseCoordinates(lat, lng string) (Point, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}
	if !isValidCoordinate(la, lo) {
		return Point{}, fmt.Errorf("coordinate out of range: %f,%f", la, lo)
	}
	return Point{Lat: la, Lng: lo}, nil
}

// Ranked is one result of Nearest
type Ranked[T any] struct {
	Item           T       `json:"item"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Nearest orders items by distance from origin and keeps at most limit of them
// (limit <= 0 keeps all). Items for which position reports false are skipped.
// Ties keep input order.
func Nearest[T any](origin Point, items []T, position func(T) (Point, bool), limit int) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		p, ok := position(item)
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked[T]{Item: item, DistanceMeters: origin.DistanceTo(p)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// isValidCoordinate catches NaN and values outside WGS84 bounds
func isValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
