package wind

import (
	"testing"
	"time"

	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/stretchr/testify/require"
)

func TestConstantProvider(t *testing.T) {
	p := ConstantProvider{Vector: Vector{DirectionTrueDeg: 270, SpeedKt: 15}}
	v, err := p.WindVector(geo.NewPoint(0, 0), 8000, time.Time{}, DefaultForecastPeriod)
	require.NoError(t, err)
	require.Equal(t, 270.0, v.DirectionTrueDeg)
	require.Equal(t, 15.0, v.SpeedKt)
}

func TestValidForecastPeriod(t *testing.T) {
	require.True(t, ValidForecastPeriod(ForecastPeriod06))
	require.True(t, ValidForecastPeriod(ForecastPeriod12))
	require.True(t, ValidForecastPeriod(ForecastPeriod24))
	require.False(t, ValidForecastPeriod("18"))
	require.False(t, ValidForecastPeriod(""))
}

func TestGridMagneticModelInterpolatesCorners(t *testing.T) {
	g := &GridMagneticModel{
		MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1, Step: 1,
		Samples: []float64{0, 10, 20, 30}, // (0,0)=0 (1,0)=10 (0,1)=20 (1,1)=30
	}
	v, err := g.Variation(geo.NewPoint(0, 0), 0, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 0, v, 1e-9)

	v, err = g.Variation(geo.NewPoint(1, 1), 0, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 30, v, 1e-9)

	v, err = g.Variation(geo.NewPoint(0.5, 0.5), 0, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 15, v, 1e-9)
}

func TestGridMagneticModelOutsideBounds(t *testing.T) {
	g := &GridMagneticModel{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1, Step: 1, Samples: []float64{0, 0, 0, 0}}
	_, err := g.Variation(geo.NewPoint(5, 5), 0, time.Time{})
	require.Error(t, err)
}
