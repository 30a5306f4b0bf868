// Package query provides the in-memory indexes the route pipeline and
// any interactive front end read against: key indexes per entity kind,
// the token-type index the parser consults to disambiguate airway and
// procedure tokens, a 1x1 degree spatial grid, and a prefix trie for
// autocomplete.
//
// The engine never owns entity data; it holds a borrowed read reference
// to an aviation.Repository snapshot (grounded on mmp-vice's strict
// separation between pkg/aviation's StaticDatabase and the ad hoc lookup
// helpers scattered through pkg/sim; here that separation is made
// explicit as its own package instead of being re-derived at call sites).
package query

import (
	"strings"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
)

// Engine answers lookups, autocomplete, and spatial queries over a
// repository snapshot taken at Build time. A later repository reload
// requires a fresh Build call; the engine never mutates its inputs.
type Engine struct {
	store aviation.MergedStore

	tokenType  map[string]aviation.Kind
	iataToICAO map[string]string
	airports   geo.Grid[string]
	navaids    geo.Grid[string]
	prefix     *trie
}

// Build constructs an Engine over a snapshot of store. Index construction
// is O(n) in the number of entities and performed eagerly; this mirrors
// mmp-vice's up-front, init-time index construction rather than
// lazy/on-demand indexing.
func Build(store aviation.MergedStore) *Engine {
	e := &Engine{
		store:      store,
		tokenType:  make(map[string]aviation.Kind),
		iataToICAO: make(map[string]string),
		airports:   *geo.NewGrid[string](),
		navaids:    *geo.NewGrid[string](),
		prefix:     newTrie(),
	}
	e.buildTokenTypeIndex()
	e.buildIATAIndex()
	e.buildSpatialIndex()
	e.buildPrefixIndex()
	return e
}

// buildIATAIndex builds the IATA->ICAO secondary lookup kept separate
// from the token-type index. 3-letter IATA codes must never be
// inserted into the token-type map (they would collide with the
// 3-digit-containing local-identifier shape the airport build-order
// check already accepts, and with fix identifiers), so this is
// reachable only through ResolveIATA.
func (e *Engine) buildIATAIndex() {
	for id, a := range e.store.Airports {
		if a.IATA != "" {
			if _, ok := e.iataToICAO[a.IATA]; !ok {
				e.iataToICAO[a.IATA] = id
			}
		}
	}
}

// buildTokenTypeIndex applies a fixed build order: airports
// (identifier-shape filtered) first, then navaids, fixes,
// airways, and finally procedures (by both name and computer code),
// first writer wins at every step. This order is deliberately distinct
// from the resolver's waypoint-resolution priority (Fix -> Navaid ->
// Airport); the two serve different questions (what kind IS this token
// vs. which entity should THIS token resolve to) and are not meant to
// agree.
func (e *Engine) buildTokenTypeIndex() {
	insert := func(id string, k aviation.Kind) {
		if _, ok := e.tokenType[id]; !ok {
			e.tokenType[id] = k
		}
	}

	for id := range e.store.Airports {
		if len(id) >= 4 || (len(id) == 3 && containsDigit(id)) {
			insert(id, aviation.KindAirport)
		}
	}
	for id := range e.store.Navaids {
		insert(id, aviation.KindNavaid)
	}
	for id := range e.store.Fixes {
		insert(id, aviation.KindFix)
	}
	for id := range e.store.Airways {
		insert(id, aviation.KindAirway)
	}
	for _, p := range e.store.Procedures {
		insert(p.Name, aviation.KindProcedure)
		insert(p.ComputerCode, aviation.KindProcedure)
	}
}

func (e *Engine) buildSpatialIndex() {
	for id, a := range e.store.Airports {
		e.airports.Insert(a.Location, id)
	}
	for id, n := range e.store.Navaids {
		e.navaids.Insert(n.Location, id)
	}
}

func (e *Engine) buildPrefixIndex() {
	for id := range e.store.Airports {
		e.prefix.insert(id)
	}
	for id := range e.store.Navaids {
		e.prefix.insert(id)
	}
	for id := range e.store.Fixes {
		e.prefix.insert(id)
	}
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// TokenType returns the token-type index entry for id, if any.
func (e *Engine) TokenType(id string) (aviation.Kind, bool) {
	k, ok := e.tokenType[id]
	return k, ok
}

// ResolveIATA returns the ICAO identifier for a 3-letter IATA code, if
// known. This is the only path to an IATA code's airport; IATA codes
// are deliberately absent from the token-type index.
func (e *Engine) ResolveIATA(iata string) (string, bool) {
	id, ok := e.iataToICAO[strings.ToUpper(iata)]
	return id, ok
}

func (e *Engine) GetAirport(id string) (aviation.Airport, bool) {
	a, ok := e.store.Airports[id]
	return a, ok
}

func (e *Engine) GetNavaid(id string) (aviation.Navaid, bool) {
	n, ok := e.store.Navaids[id]
	return n, ok
}

func (e *Engine) GetFix(id string) (aviation.Fix, bool) {
	f, ok := e.store.Fixes[id]
	return f, ok
}

func (e *Engine) GetAirway(id string) (aviation.Airway, bool) {
	a, ok := e.store.Airways[id]
	return a, ok
}

func (e *Engine) GetProcedure(id string) (aviation.Procedure, bool) {
	p, ok := e.store.Procedures[id]
	return p, ok
}

// ProceduresByName returns every stored procedure whose Name matches,
// for the resolver's start/end-of-route disambiguation between
// same-named DPs and STARs.
func (e *Engine) ProceduresByName(name string) []aviation.Procedure {
	var out []aviation.Procedure
	for _, p := range e.store.Procedures {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// ResolveWaypoint applies the Fix -> Navaid -> Airport priority order
// and returns coordinates, kind, and identifier.
func (e *Engine) ResolveWaypoint(id string) (geo.Point, aviation.Kind, bool) {
	if f, ok := e.store.Fixes[id]; ok {
		return f.Location, aviation.KindFix, true
	}
	if n, ok := e.store.Navaids[id]; ok {
		return n.Location, aviation.KindNavaid, true
	}
	if a, ok := e.store.Airports[id]; ok {
		return a.Location, aviation.KindAirport, true
	}
	return geo.Point{}, aviation.KindUnknown, false
}

// InBounds returns every airport and navaid identifier whose grid cell
// intersects bounds. A full scan of the global cell map is acceptable at
// this scale.
func (e *Engine) InBounds(b geo.Bounds) []string {
	var out []string
	for _, ids := range e.airports.InBounds(b) {
		out = append(out, ids...)
	}
	for _, ids := range e.navaids.InBounds(b) {
		out = append(out, ids...)
	}
	return out
}

// NearRouteDefaultRadiusNM is the default proximity threshold for
// NearRoute.
const NearRouteDefaultRadiusNM = 45.0

// RouteLeg is the minimal leg shape NearRoute needs: two endpoints.
type RouteLeg struct {
	From, To geo.Point
}

// NearRoute returns the identifiers of airports/navaids within radiusNM
// of any leg, approximating per-leg proximity as the minimum distance to
// the leg's two endpoints and its midpoint.
func (e *Engine) NearRoute(legs []RouteLeg, radiusNM float64) []string {
	if radiusNM <= 0 {
		radiusNM = NearRouteDefaultRadiusNM
	}

	type candidate struct {
		id  string
		loc geo.Point
	}
	var candidates []candidate
	for id, a := range e.store.Airports {
		candidates = append(candidates, candidate{id, a.Location})
	}
	for id, n := range e.store.Navaids {
		candidates = append(candidates, candidate{id, n.Location})
	}

	seen := make(map[string]bool)
	var out []string
	for _, leg := range legs {
		mid := geo.NewPoint(
			(leg.From.Latitude()+leg.To.Latitude())/2,
			(leg.From.Longitude()+leg.To.Longitude())/2,
		)
		for _, c := range candidates {
			if seen[c.id] {
				continue
			}
			dFrom, _, _ := geo.DistanceAndBearing(c.loc, leg.From)
			dTo, _, _ := geo.DistanceAndBearing(c.loc, leg.To)
			dMid, _, _ := geo.DistanceAndBearing(c.loc, mid)
			d := dFrom
			if dTo < d {
				d = dTo
			}
			if dMid < d {
				d = dMid
			}
			if d <= radiusNM {
				seen[c.id] = true
				out = append(out, c.id)
			}
		}
	}
	return out
}

// Search performs context-aware autocomplete over the prefix index,
// ranking exact matches before other prefix matches (substring and name
// matches are not searched), then biasing the result when a previous
// token's kind is supplied: after an AIRPORT, the computer codes of
// procedures at that airport (or whose computer code is prefixed by the
// airport) surface first; after any waypoint kind, airways containing it
// surface first.
func (e *Engine) Search(prefix string, limit int, contextPrevToken string) []string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if limit <= 0 {
		limit = 10
	}

	ranked := e.prefix.search(prefix, limit*4)

	var biased, rest []string
	if contextPrevToken != "" {
		if _, ok := e.store.Airports[contextPrevToken]; ok {
			for _, p := range e.store.Procedures {
				if p.Airport == contextPrevToken || strings.HasPrefix(p.ComputerCode, contextPrevToken) {
					biased = append(biased, p.ComputerCode)
				}
			}
		}
		if k, ok := e.TokenType(contextPrevToken); ok && k != aviation.KindAirport {
			for id, aw := range e.store.Airways {
				if aw.IndexOf(contextPrevToken) >= 0 {
					biased = append(biased, id)
				}
			}
		}
	}

	combined := append(append([]string{}, biased...), ranked...)
	dedup := make(map[string]bool)
	for _, id := range combined {
		if !dedup[id] {
			dedup[id] = true
			rest = append(rest, id)
		}
	}
	if len(rest) > limit {
		rest = rest[:limit]
	}
	return rest
}
