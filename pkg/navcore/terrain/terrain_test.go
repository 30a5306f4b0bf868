package terrain

import (
	"testing"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/stretchr/testify/require"
)

func TestMoraForConstantTimeLookup(t *testing.T) {
	g := BuildGrid([]aviation.MORACell{{SWLat: 39, SWLon: -105, FeetMSL: 12000, Source: "authoritative"}})
	cell, ok := g.MoraFor(39.5, -104.5)
	require.True(t, ok)
	require.Equal(t, 12000, cell.FeetMSL)

	_, ok = g.MoraFor(0, 0)
	require.False(t, ok)
}

func TestAnalyzeRouteScenario5Unsafe(t *testing.T) {
	g := BuildGrid([]aviation.MORACell{{SWLat: 39, SWLon: -105, FeetMSL: 12000, Source: "authoritative"}})
	waypoints := []geo.Point{geo.NewPoint(39.2, -104.8), geo.NewPoint(39.8, -104.2)}

	analysis := g.AnalyzeRoute(waypoints)
	require.True(t, analysis.HaveData)
	require.Equal(t, 12000.0, analysis.MaxMORA)
	require.True(t, analysis.IsMountainous)
	require.Equal(t, 2000.0, analysis.RequiredClearanceFt)

	verdict := CheckClearance(7000, analysis)
	require.Equal(t, VerdictUnsafe, verdict)
}

func TestCheckClearanceMonotonicity(t *testing.T) {
	analysis := Analysis{HaveData: true, MaxMORA: 10000, RequiredClearanceFt: 1000}

	require.Equal(t, VerdictUnsafe, CheckClearance(8000, analysis))
	require.Equal(t, VerdictMarginal, CheckClearance(9500, analysis))
	require.Equal(t, VerdictOK, CheckClearance(10500, analysis))
}

func TestCheckClearanceNoDataIsOK(t *testing.T) {
	require.Equal(t, VerdictOK, CheckClearance(1000, Analysis{}))
}

func TestMountainousThreshold(t *testing.T) {
	g := BuildGrid([]aviation.MORACell{{SWLat: 10, SWLon: 10, FeetMSL: 5999, Source: "authoritative"}})
	analysis := g.AnalyzeRoute([]geo.Point{geo.NewPoint(10.5, 10.5)})
	require.False(t, analysis.IsMountainous)

	g2 := BuildGrid([]aviation.MORACell{{SWLat: 10, SWLon: 10, FeetMSL: 6000, Source: "authoritative"}})
	analysis2 := g2.AnalyzeRoute([]geo.Point{geo.NewPoint(10.5, 10.5)})
	require.True(t, analysis2.IsMountainous)
}
