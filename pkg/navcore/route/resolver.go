package route

import (
	"strings"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/airnav/navcore/pkg/navcore/util"
)

// Resolved is one node's resolution outcome: a tuple of coordinates,
// kind, and (where applicable) the underlying airway/procedure data the
// expander needs to materialize waypoints. Exactly one of the entity
// fields is populated, matching which node kind produced it.
type Resolved struct {
	Node Node

	Point geo.Point
	Kind  aviation.Kind
	Ok    bool

	Airway     aviation.Airway    // populated for AirwaySegNode
	Procedure  aviation.Procedure // populated for ProcedureNode
	Transition string             // populated for an explicit ProcedureNode whose transition the procedure has

	FromWaypoint, ToWaypoint string // echoed for AirwaySegNode, for the expander
}

// Repository is the resolver's read dependency: waypoint and entity
// lookups. query.Engine satisfies this.
type Repository interface {
	ResolveWaypoint(id string) (geo.Point, aviation.Kind, bool)
	GetAirway(id string) (aviation.Airway, bool)
	GetProcedure(id string) (aviation.Procedure, bool)
	GetAirport(id string) (aviation.Airport, bool)
	ProceduresByName(name string) []aviation.Procedure
}

// Resolve obtains coordinates and canonical entity data for each node.
// Unresolved identifiers are diagnosed, not fatal.
func Resolve(nodes []Node, repo Repository) ([]Resolved, util.Diagnostics) {
	var diags util.Diagnostics
	out := make([]Resolved, len(nodes))

	for i, n := range nodes {
		switch v := n.(type) {
		case WaypointNode:
			p, k, ok := repo.ResolveWaypoint(v.Token)
			out[i] = Resolved{Node: n, Point: p, Kind: k, Ok: ok}
			if !ok {
				diags.Addf(util.StageResolve, util.KindResolveError, "unresolved-waypoint", &v.Token, "waypoint %q did not resolve", v.Token)
			}

		case CoordinateNode:
			p := geo.NewPoint(v.Lat, v.Lon)
			out[i] = Resolved{Node: n, Point: p, Kind: aviation.KindUnknown, Ok: true}

		case DirectNode:
			out[i] = Resolved{Node: n, Ok: true}

		case AirwaySegNode:
			fromP, fromK, fromOk := repo.ResolveWaypoint(v.From)
			toP, toK, toOk := repo.ResolveWaypoint(v.To)
			aw, awOk := repo.GetAirway(v.Airway)

			ok := fromOk && toOk && awOk
			if !fromOk {
				diags.Addf(util.StageResolve, util.KindResolveError, "unresolved-waypoint", &v.From, "airway segment endpoint %q did not resolve", v.From)
			}
			if !toOk {
				diags.Addf(util.StageResolve, util.KindResolveError, "unresolved-waypoint", &v.To, "airway segment endpoint %q did not resolve", v.To)
			}
			if !awOk {
				diags.Addf(util.StageResolve, util.KindResolveError, "unresolved-airway", &v.Airway, "airway %q not found", v.Airway)
			}

			out[i] = Resolved{
				Node: n, Ok: ok, Airway: aw,
				FromWaypoint: v.From, ToWaypoint: v.To,
			}
			if fromOk {
				out[i].Point = fromP
				out[i].Kind = fromK
			} else if toOk {
				out[i].Point = toP
				out[i].Kind = toK
			}

		case ProcedureNode:
			proc, transition, ok := resolveProcedure(v, nodes, i, repo)
			out[i] = Resolved{Node: n, Procedure: proc, Transition: transition, Ok: ok}
			if ok {
				out[i].Kind = aviation.KindProcedure
			} else {
				diags.Addf(util.StageResolve, util.KindResolveError, "unresolved-procedure", &v.Name, "procedure %q did not resolve", v.Name)
			}
		}
	}

	return out, diags
}

// resolveProcedure tries five lookup strategies in order, using the
// node's position to prefer a DP near the route start and a STAR near
// its end when a bare name is ambiguous.
func resolveProcedure(v ProcedureNode, nodes []Node, index int, repo Repository) (aviation.Procedure, string, bool) {
	nearStart := index < len(nodes)/2

	tryExact := func(code string) (aviation.Procedure, bool) { return repo.GetProcedure(code) }

	// 1. Exact match on the procedure token.
	key := v.Name
	if v.Explicit {
		key = v.Transition + "." + v.Name
	}
	if p, ok := tryExact(key); ok {
		return p, resolveTransitionName(v, p), true
	}

	// 2./3. For the explicit form only: the procedure half, then the
	// transition half, each tried alone as an exact key. A bare name is
	// not matched against computer codes by prefix or suffix.
	if v.Explicit {
		if p, ok := tryExact(v.Name); ok {
			return p, resolveTransitionName(v, p), true
		}
		if p, ok := tryExact(v.Transition); ok {
			return p, resolveTransitionName(v, p), true
		}
	}

	// 4. AIRPORT.PROCEDURE using the adjacent route airport as context.
	if airport := adjacentAirport(nodes, index); airport != "" {
		if p, ok := tryExact(airport + "." + v.Name); ok {
			return p, resolveTransitionName(v, p), true
		}
		// 5. AIRPORT.NAME.PROCEDURE (only meaningful for the explicit
		// transition form, where NAME is the transition).
		if v.Explicit {
			if p, ok := tryExact(airport + "." + v.Transition + "." + v.Name); ok {
				return p, resolveTransitionName(v, p), true
			}
		}
	}

	// Final fallback: a bare name with multiple candidate procedures
	// (e.g. the same name published as both a DP and a STAR at
	// different airports). Prefer a DP near the route's start and a
	// STAR near its end.
	if candidates := repo.ProceduresByName(v.Name); len(candidates) > 0 {
		wantKind := aviation.ProcedureSTAR
		if nearStart {
			wantKind = aviation.ProcedureDP
		}
		for _, c := range candidates {
			if c.Kind == wantKind {
				return c, resolveTransitionName(v, c), true
			}
		}
		return candidates[0], resolveTransitionName(v, candidates[0]), true
	}

	return aviation.Procedure{}, "", false
}

func resolveTransitionName(v ProcedureNode, p aviation.Procedure) string {
	if !v.Explicit {
		return ""
	}
	if _, ok := p.Transition(v.Transition); ok {
		return v.Transition
	}
	return ""
}

// adjacentAirport returns the nearest WaypointNode token recognizable as
// an airport-shaped identifier adjacent to index, preferring the
// previous node.
func adjacentAirport(nodes []Node, index int) string {
	for offset := 1; offset < len(nodes); offset++ {
		if index-offset >= 0 {
			if w, ok := nodes[index-offset].(WaypointNode); ok && looksLikeAirport(w.Token) {
				return w.Token
			}
		}
		if index+offset < len(nodes) {
			if w, ok := nodes[index+offset].(WaypointNode); ok && looksLikeAirport(w.Token) {
				return w.Token
			}
		}
	}
	return ""
}

func looksLikeAirport(s string) bool {
	if len(s) == 4 {
		return true
	}
	if len(s) == 3 {
		return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
	}
	return false
}
