// Package geo implements the WGS-84 geodesy used by the route calculator
// and terrain analyzer: the Vincenty inverse/direct solutions, a
// haversine fallback, heading normalization, and a 1-degree spatial grid
// bucketing scheme shared by the query engine and terrain analyzer.
//
// The point representation and heading helpers are grounded on
// mmp-vice's pkg/math/latlong.go and pkg/math/heading.go; the ellipsoidal
// geodesy itself has no analog in mmp-vice (which uses a flat nm-per-
// longitude projection tuned for radar-scope rendering, not for long
// cross-country legs) so it is original to this package.
package geo

import "fmt"

// Point is a position on the Earth. Index 0 is longitude, index 1 is
// latitude (matching mmp-vice's Point2LL convention) so that points
// read naturally as (x, y) when plotted.
type Point [2]float64

func NewPoint(lat, lon float64) Point {
	return Point{lon, lat}
}

func (p Point) Longitude() float64 { return p[0] }
func (p Point) Latitude() float64  { return p[1] }

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Latitude(), p.Longitude())
}

// GridCell returns the 1x1 degree SW-corner grid cell containing p, used
// by both the query engine's spatial index and the terrain analyzer's
// MORA grid.
func (p Point) GridCell() [2]int {
	return [2]int{int(floor(p.Latitude())), int(floor(p.Longitude()))}
}

func floor(v float64) float64 {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
