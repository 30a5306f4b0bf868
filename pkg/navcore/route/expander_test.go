package route

import (
	"testing"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/stretchr/testify/require"
)

func TestExpandAirwaySegmentForward(t *testing.T) {
	repo := newStubRepo()
	repo.fixes["RBV"] = geo.NewPoint(40, -74)
	repo.fixes["MID"] = geo.NewPoint(40.5, -77)
	repo.fixes["AIR"] = geo.NewPoint(41, -80)
	repo.airways["Q430"] = aviation.Airway{ID: "Q430", FixSequence: []string{"RBV", "MID", "AIR"}}

	nodes := []Node{AirwaySegNode{From: "RBV", Airway: "Q430", To: "AIR"}}
	resolved, _ := Resolve(nodes, repo)
	waypoints, diags := Expand(resolved, repo)

	require.False(t, diags.HaveErrors())
	require.Equal(t, []string{"RBV", "MID", "AIR"}, identifiers(waypoints))
}

func TestExpandAirwaySegmentReversed(t *testing.T) {
	repo := newStubRepo()
	repo.fixes["RBV"] = geo.NewPoint(40, -74)
	repo.fixes["MID"] = geo.NewPoint(40.5, -77)
	repo.fixes["AIR"] = geo.NewPoint(41, -80)
	repo.airways["Q430"] = aviation.Airway{ID: "Q430", FixSequence: []string{"RBV", "MID", "AIR"}}

	nodes := []Node{AirwaySegNode{From: "AIR", Airway: "Q430", To: "RBV"}}
	resolved, _ := Resolve(nodes, repo)
	waypoints, diags := Expand(resolved, repo)

	require.False(t, diags.HaveErrors())
	require.Equal(t, []string{"AIR", "MID", "RBV"}, identifiers(waypoints))
}

func TestExpandDeduplicatesConsecutiveIdentifiers(t *testing.T) {
	repo := newStubRepo()
	repo.fixes["A"] = geo.NewPoint(0, 0)
	repo.fixes["B"] = geo.NewPoint(1, 1)
	repo.fixes["C"] = geo.NewPoint(2, 2)
	repo.airways["Q1"] = aviation.Airway{ID: "Q1", FixSequence: []string{"A", "B"}}
	repo.airways["Q2"] = aviation.Airway{ID: "Q2", FixSequence: []string{"B", "C"}}

	nodes := []Node{
		AirwaySegNode{From: "A", Airway: "Q1", To: "B"},
		AirwaySegNode{From: "B", Airway: "Q2", To: "C"},
	}
	resolved, _ := Resolve(nodes, repo)
	waypoints, diags := Expand(resolved, repo)

	require.False(t, diags.HaveErrors())
	require.Equal(t, []string{"A", "B", "C"}, identifiers(waypoints))
}

func TestExpandDirectEmitsNothing(t *testing.T) {
	repo := newStubRepo()
	nodes := []Node{DirectNode{}}
	resolved, _ := Resolve(nodes, repo)
	waypoints, _ := Expand(resolved, repo)
	require.Empty(t, waypoints)
}

func TestExpandUnresolvedAirwayEndpointDiagnosed(t *testing.T) {
	repo := newStubRepo()
	repo.fixes["A"] = geo.NewPoint(0, 0)
	repo.airways["Q1"] = aviation.Airway{ID: "Q1", FixSequence: []string{"A", "B"}}
	// "Z" never registered, so the airway segment fails to resolve.
	nodes := []Node{AirwaySegNode{From: "A", Airway: "Q1", To: "Z"}}
	resolved, _ := Resolve(nodes, repo)
	_, diags := Expand(resolved, repo)
	require.True(t, diags.HaveErrors())
}

func identifiers(ws []ExpandedWaypoint) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Identifier
	}
	return out
}
