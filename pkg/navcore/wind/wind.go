// Package wind declares the two external collaborators the calculator
// consults per leg: a wind-vector provider and a magnetic-variation
// model. Both are interfaces so the calculator can run against a grid
// model, a constant stub (for tests), or a network-backed forecast
// without caring which.
package wind

import (
	"time"

	"github.com/airnav/navcore/pkg/navcore/geo"
)

// Vector is a wind observation: the direction the wind blows FROM, in
// true degrees, and its speed in knots. Grounded on mmp-vice's
// pkg/aviation/weather.go WindModel.GetWindVector, which returns a
// cartesian [2]float32; here the contract is expressed directly in the
// direction/speed form the calculator's wind-correction-angle formula
// consumes, rather than requiring every caller to re-derive
// atan2/magnitude from a vector.
type Vector struct {
	DirectionTrueDeg float64
	SpeedKt          float64
}

// ForecastPeriod selects which winds-aloft forecast snapshot a Provider
// should consult: the 06Z, 12Z, or 24Z run. DefaultForecastPeriod is used
// whenever a caller leaves this unset.
type ForecastPeriod string

const (
	ForecastPeriod06 ForecastPeriod = "06"
	ForecastPeriod12 ForecastPeriod = "12"
	ForecastPeriod24 ForecastPeriod = "24"

	DefaultForecastPeriod = ForecastPeriod12
)

// ValidForecastPeriod reports whether p is one of the three recognized
// forecast periods.
func ValidForecastPeriod(p ForecastPeriod) bool {
	switch p {
	case ForecastPeriod06, ForecastPeriod12, ForecastPeriod24:
		return true
	default:
		return false
	}
}

// Provider supplies a wind vector at a point, altitude, and time, drawn
// from the requested forecast snapshot. Grounded on mmp-vice's WindModel
// interface, generalized with a time parameter since winds aloft are not
// static the way mmp-vice's single in-memory snapshot is, and with a
// forecast period since a real winds-aloft feed publishes several
// snapshots a day rather than one.
type Provider interface {
	WindVector(p geo.Point, altitudeFt float64, at time.Time, period ForecastPeriod) (Vector, error)
}

// MagneticModel supplies east-positive magnetic variation in degrees.
// Grounded on mmp-vice's db.go MagneticGrid.Lookup, extended with a
// date parameter since variation drifts over a multi-year dataset
// lifetime and mmp-vice's is a single fixed-epoch grid.
type MagneticModel interface {
	Variation(p geo.Point, altitudeFt float64, at time.Time) (float64, error)
}

// ConstantProvider is a fixed wind vector everywhere, useful for tests
// and as a degraded fallback when no forecast is available.
type ConstantProvider struct {
	Vector Vector
}

func (c ConstantProvider) WindVector(geo.Point, float64, time.Time, ForecastPeriod) (Vector, error) {
	return c.Vector, nil
}

// GridMagneticModel is a lat/lon-indexed sample grid for a single epoch,
// like mmp-vice's MagneticGrid; it holds one grid and does not select
// among epochs by date.
type GridMagneticModel struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Step           float64
	Epoch          time.Time
	Samples        []float64 // row-major, lat-major then lon, matching mmp-vice's layout
}

func (g *GridMagneticModel) cols() int {
	return int((g.MaxLon-g.MinLon)/g.Step) + 1
}

// Variation bilinearly interpolates the nearest four sample points,
// matching mmp-vice's Lookup (which does the same interpolation over
// its single grid); the date parameter is accepted but this single-epoch
// grid ignores it, documented here rather than silently dropped.
func (g *GridMagneticModel) Variation(p geo.Point, _ float64, _ time.Time) (float64, error) {
	lat, lon := p.Latitude(), p.Longitude()
	if lat < g.MinLat || lat > g.MaxLat || lon < g.MinLon || lon > g.MaxLon {
		return 0, errOutsideGrid
	}

	cols := g.cols()
	fx := (lon - g.MinLon) / g.Step
	fy := (lat - g.MinLat) / g.Step
	x0, y0 := int(fx), int(fy)
	x1, y1 := x0+1, y0+1
	dx, dy := fx-float64(x0), fy-float64(y0)

	at := func(x, y int) float64 {
		idx := y*cols + x
		if idx < 0 || idx >= len(g.Samples) {
			return 0
		}
		return g.Samples[idx]
	}

	top := at(x0, y0)*(1-dx) + at(x1, y0)*dx
	bottom := at(x0, y1)*(1-dx) + at(x1, y1)*dx
	return top*(1-dy) + bottom*dy, nil
}

type gridError string

func (e gridError) Error() string { return string(e) }

const errOutsideGrid = gridError("wind: point outside magnetic grid bounds")
