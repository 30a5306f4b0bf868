package route

import (
	"testing"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	fixes      map[string]geo.Point
	navaids    map[string]geo.Point
	airports   map[string]geo.Point
	airways    map[string]aviation.Airway
	procedures map[string]aviation.Procedure
	byName     map[string][]aviation.Procedure
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		fixes: make(map[string]geo.Point), navaids: make(map[string]geo.Point),
		airports: make(map[string]geo.Point), airways: make(map[string]aviation.Airway),
		procedures: make(map[string]aviation.Procedure), byName: make(map[string][]aviation.Procedure),
	}
}

func (s *stubRepo) ResolveWaypoint(id string) (geo.Point, aviation.Kind, bool) {
	if p, ok := s.fixes[id]; ok {
		return p, aviation.KindFix, true
	}
	if p, ok := s.navaids[id]; ok {
		return p, aviation.KindNavaid, true
	}
	if p, ok := s.airports[id]; ok {
		return p, aviation.KindAirport, true
	}
	return geo.Point{}, aviation.KindUnknown, false
}

func (s *stubRepo) GetAirway(id string) (aviation.Airway, bool) {
	a, ok := s.airways[id]
	return a, ok
}

func (s *stubRepo) GetProcedure(id string) (aviation.Procedure, bool) {
	p, ok := s.procedures[id]
	return p, ok
}

func (s *stubRepo) GetAirport(id string) (aviation.Airport, bool) {
	p, ok := s.airports[id]
	if !ok {
		return aviation.Airport{}, false
	}
	return aviation.Airport{ID: id, Location: p}, true
}

func (s *stubRepo) ProceduresByName(name string) []aviation.Procedure {
	return s.byName[name]
}

func TestResolveWaypointFixBeforeNavaidBeforeAirport(t *testing.T) {
	repo := newStubRepo()
	repo.fixes["DUP"] = geo.NewPoint(1, 1)
	repo.navaids["DUP"] = geo.NewPoint(2, 2)
	repo.airports["DUP"] = geo.NewPoint(3, 3)

	nodes := []Node{WaypointNode{Token: "DUP"}}
	resolved, diags := Resolve(nodes, repo)
	require.False(t, diags.HaveErrors())
	require.Equal(t, aviation.KindFix, resolved[0].Kind)
}

func TestResolveUnresolvedWaypointDiagnosed(t *testing.T) {
	repo := newStubRepo()
	nodes := []Node{WaypointNode{Token: "GHOST"}}
	resolved, diags := Resolve(nodes, repo)
	require.True(t, diags.HaveErrors())
	require.False(t, resolved[0].Ok)
}

func TestResolveAirwaySegment(t *testing.T) {
	repo := newStubRepo()
	repo.fixes["RBV"] = geo.NewPoint(40, -74)
	repo.fixes["AIR"] = geo.NewPoint(41, -80)
	repo.airways["Q430"] = aviation.Airway{ID: "Q430", FixSequence: []string{"RBV", "MID", "AIR"}}

	nodes := []Node{AirwaySegNode{From: "RBV", Airway: "Q430", To: "AIR"}}
	resolved, diags := Resolve(nodes, repo)
	require.False(t, diags.HaveErrors())
	require.True(t, resolved[0].Ok)
	require.Equal(t, []string{"RBV", "MID", "AIR"}, resolved[0].Airway.FixSequence)
}

func TestResolveProcedureExplicitTransition(t *testing.T) {
	repo := newStubRepo()
	repo.procedures["HIDEY.HIDEY1"] = aviation.Procedure{
		Name: "HIDEY1", ComputerCode: "HIDEY.HIDEY1",
		Transitions: []aviation.Transition{{Name: "HIDEY", Fixes: []string{"A", "B"}}},
	}
	nodes := []Node{ProcedureNode{Transition: "HIDEY", Name: "HIDEY1", Explicit: true}}
	resolved, diags := Resolve(nodes, repo)
	require.False(t, diags.HaveErrors())
	require.True(t, resolved[0].Ok)
	require.Equal(t, "HIDEY", resolved[0].Transition)
}
