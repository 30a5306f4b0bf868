package service

import (
	"context"
	"testing"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/airnav/navcore/pkg/navcore/query"
	"github.com/airnav/navcore/pkg/navcore/route"
	"github.com/stretchr/testify/require"
)

func sampleStore() aviation.MergedStore {
	return aviation.MergedStore{
		Airports: map[string]aviation.Airport{
			"KJFK": {ID: "KJFK", Name: "John F Kennedy Intl", Location: geo.NewPoint(40.6398, -73.7789), Type: aviation.AirportLarge},
			"KORD": {ID: "KORD", Name: "Chicago O'Hare Intl", Location: geo.NewPoint(41.9786, -87.9048), Type: aviation.AirportLarge},
		},
		Navaids: map[string]aviation.Navaid{},
		Fixes: map[string]aviation.Fix{
			"RBV": {ID: "RBV", Location: geo.NewPoint(40.2, -74.1)},
			"AIR": {ID: "AIR", Location: geo.NewPoint(41.0, -80.0)},
		},
		Airways: map[string]aviation.Airway{
			"Q430": {ID: "Q430", FixSequence: []string{"RBV", "AIR"}},
		},
		Procedures: map[string]aviation.Procedure{},
	}
}

func newTestService() *RouteService {
	return &RouteService{Engine: query.Build(sampleStore())}
}

func TestPlanRejectsFuelWithoutWindCorrection(t *testing.T) {
	s := newTestService()
	_, err := s.Plan(context.Background(), "KJFK RBV Q430 AIR KORD", PlanningOptions{
		ApplyFuelPlanning:   true,
		ApplyWindCorrection: false,
	})
	require.Error(t, err)
}

func TestPlanExpandsAirwayAndCalculatesLegs(t *testing.T) {
	s := newTestService()
	result, err := s.Plan(context.Background(), "KJFK RBV Q430 AIR KORD", PlanningOptions{
		TrueAirspeedKt: 180,
		BurnRateGPH:    12,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"KJFK", "RBV", "AIR", "KORD"}, identifiers(result.Waypoints))
	require.Len(t, result.Plan.Legs, 3)
	require.False(t, result.Diagnostics.HaveErrors())
}

func TestPlanUnresolvedTokenIsNonFatal(t *testing.T) {
	s := newTestService()
	result, err := s.Plan(context.Background(), "KJFK ZZZZZ KORD", PlanningOptions{TrueAirspeedKt: 150})
	require.NoError(t, err)
	require.True(t, result.Diagnostics.HaveErrors())
	require.Equal(t, []string{"KJFK", "KORD"}, identifiers(result.Waypoints))
}

func TestPlanSkipsTerrainWhenGridUnavailable(t *testing.T) {
	s := newTestService()
	result, err := s.Plan(context.Background(), "KJFK KORD", PlanningOptions{
		TrueAirspeedKt:    150,
		ApplyTerrainCheck: true,
	})
	require.NoError(t, err)
	require.False(t, result.TerrainAnalysis.HaveData)
	require.True(t, result.Diagnostics.HaveErrors())
}

func identifiers(ws []route.ExpandedWaypoint) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Identifier
	}
	return out
}
