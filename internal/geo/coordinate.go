// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo provides the coordinate value type shared by the routing packages together
// with the great-circle helpers needed for snapping and guidance.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Coordinate represents a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RangeError reports a coordinate component outside of its valid range.
type RangeError struct {
	Field string
	Value float64
	Bound string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v is %s", e.Field, e.Value, e.Bound)
}

// New returns a Coordinate for the given latitude and longitude.
func New(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

// Validate checks the coordinate against the EPSG:4326 ranges. The returned error is a
// *RangeError naming the offending field, its value and the bound that was violated.
func (c Coordinate) Validate() error {
	if err := checkRange("latitude", c.Lat, MinLatitude, MaxLatitude); err != nil {
		return err
	}
	return checkRange("longitude", c.Lon, MinLongitude, MaxLongitude)
}

// String returns the coordinate in "lat,lon" notation.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Parse reads a coordinate in "lat,lon" notation. Surrounding whitespace is ignored. The
// coordinate is not range checked.
func Parse(val string) (Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(val, ",")
	if !ok {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected lat,lon", val)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid latitude in %q: %w", val, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid longitude in %q: %w", val, err)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// Point returns the coordinate as an orb.Point in longitude, latitude order.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// DistanceTo returns the great-circle distance in meters using the Haversine formula.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return orbgeo.DistanceHaversine(c.Point(), other.Point())
}

// BearingTo returns the initial bearing towards other in degrees, normalized to [0, 360).
func (c Coordinate) BearingTo(other Coordinate) float64 {
	return math.Mod(orbgeo.Bearing(c.Point(), other.Point())+360, 360)
}

// Truncate cuts x to the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}

func checkRange(field string, val, lower, upper float64) error {
	switch {
	case math.IsNaN(val) || math.IsInf(val, 0):
		return &RangeError{Field: field, Value: val, Bound: "not a finite number"}
	case val < lower:
		return &RangeError{Field: field, Value: val, Bound: fmt.Sprintf("below the minimum of %v", lower)}
	case val > upper:
		return &RangeError{Field: field, Value: val, Bound: fmt.Sprintf("above the maximum of %v", upper)}
	}
	return nil
}
