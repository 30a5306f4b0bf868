package query

import (
	"testing"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/stretchr/testify/require"
)

func sampleStore() aviation.MergedStore {
	return aviation.MergedStore{
		Airports: map[string]aviation.Airport{
			"KJFK": {ID: "KJFK", Name: "John F Kennedy Intl", Location: geo.NewPoint(40.6398, -73.7789), Type: aviation.AirportLarge},
			"KORD": {ID: "KORD", Name: "Chicago O'Hare Intl", Location: geo.NewPoint(41.9786, -87.9048), Type: aviation.AirportLarge},
		},
		Navaids: map[string]aviation.Navaid{
			"CMK": {ID: "CMK", Name: "Carmel", Location: geo.NewPoint(41.4, -73.7)},
		},
		Fixes: map[string]aviation.Fix{
			"RBV": {ID: "RBV", Location: geo.NewPoint(40.2, -74.1)},
			"AIR": {ID: "AIR", Location: geo.NewPoint(41.0, -80.0)},
		},
		Airways: map[string]aviation.Airway{
			"Q430": {ID: "Q430", FixSequence: []string{"RBV", "AIR"}},
		},
		Procedures: map[string]aviation.Procedure{
			"CLPRR3": {Name: "CLPRR3", ComputerCode: "CLPRR3.CLPRR", Kind: aviation.ProcedureSTAR, Airport: "KORD"},
		},
	}
}

func TestTokenTypeIndexBuildOrder(t *testing.T) {
	e := Build(sampleStore())

	k, ok := e.TokenType("KJFK")
	require.True(t, ok)
	require.Equal(t, aviation.KindAirport, k)

	k, ok = e.TokenType("Q430")
	require.True(t, ok)
	require.Equal(t, aviation.KindAirway, k)

	k, ok = e.TokenType("CLPRR3")
	require.True(t, ok)
	require.Equal(t, aviation.KindProcedure, k)

	k, ok = e.TokenType("CLPRR3.CLPRR")
	require.True(t, ok)
	require.Equal(t, aviation.KindProcedure, k)
}

func TestResolveIATASeparateFromTokenType(t *testing.T) {
	store := sampleStore()
	a := store.Airports["KJFK"]
	a.IATA = "JFK"
	store.Airports["KJFK"] = a
	e := Build(store)

	id, ok := e.ResolveIATA("jfk")
	require.True(t, ok)
	require.Equal(t, "KJFK", id)

	_, ok = e.TokenType("JFK")
	require.False(t, ok)
}

func TestResolveWaypointPriority(t *testing.T) {
	store := sampleStore()
	// Introduce a conflicting identifier present as both fix and navaid
	// to exercise the Fix > Navaid > Airport priority explicitly.
	store.Fixes["CMK"] = aviation.Fix{ID: "CMK", Location: geo.NewPoint(0, 0)}
	e := Build(store)

	_, k, ok := e.ResolveWaypoint("CMK")
	require.True(t, ok)
	require.Equal(t, aviation.KindFix, k)
}

func TestInBounds(t *testing.T) {
	e := Build(sampleStore())
	ids := e.InBounds(geo.Bounds{MinLat: 40, MaxLat: 42, MinLon: -88, MaxLon: -73})
	require.Contains(t, ids, "KJFK")
	require.Contains(t, ids, "KORD")
}

func TestSearchContextBiasAfterAirport(t *testing.T) {
	e := Build(sampleStore())
	results := e.Search("CL", 5, "KORD")
	require.Contains(t, results, "CLPRR3.CLPRR")
}

func TestSearchContextBiasAfterWaypoint(t *testing.T) {
	e := Build(sampleStore())
	results := e.Search("Q", 5, "RBV")
	require.Contains(t, results, "Q430")
}

func TestNearRoute(t *testing.T) {
	e := Build(sampleStore())
	legs := []RouteLeg{{From: geo.NewPoint(40.2, -74.1), To: geo.NewPoint(41.0, -80.0)}}
	ids := e.NearRoute(legs, 50)
	require.Contains(t, ids, "KJFK")
}
