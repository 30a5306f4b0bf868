// Package terrain provides MORA-based clearance assessment along a
// route: a 1x1 degree global cell grid plus route sampling and a
// clearance verdict. Grounded on mmp-vice's MVA model
// (pkg/aviation/db.go's MVA/MVA.Inside and the AirspaceGrid lookup
// pattern it's built on) generalized from polygon-volume cells to the
// simpler scalar-per-cell MORA model used here.
package terrain

import (
	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
)

// SampleIntervalNM is the great-circle sampling interval analyze_route
// uses between adjacent waypoints.
const SampleIntervalNM = 5.0

// ClearanceBufferFt is the standard obstacle clearance already baked
// into a published MORA value.
const ClearanceBufferFt = 1000

// MountainousThresholdFt is the max(MORA)-1000 threshold above which a
// route is classified mountainous, matching the offline-MORA code
// path's semantics over the alternative max(MORA) >= 5000 reading --
// see the decision recorded in the grounding ledger.
const MountainousThresholdFt = 5000

// Grid holds the loaded MORA cell map.
type Grid struct {
	cells geo.Grid[aviation.MORACell]
}

// BuildGrid constructs a Grid from a flat cell list (as loaded by
// aviation.Repository.MORACells).
func BuildGrid(cells []aviation.MORACell) *Grid {
	g := &Grid{cells: *geo.NewGrid[aviation.MORACell]()}
	for _, c := range cells {
		p := geo.NewPoint(float64(c.SWLat)+0.5, float64(c.SWLon)+0.5)
		g.cells.Insert(p, c)
	}
	return g
}

// MoraFor returns the MORA value at the cell containing (lat, lon), if
// loaded.
func (g *Grid) MoraFor(lat, lon float64) (aviation.MORACell, bool) {
	values, ok := g.cells.Lookup(geo.NewPoint(lat, lon))
	if !ok || len(values) == 0 {
		return aviation.MORACell{}, false
	}
	return values[0], true
}

// MoraInBounds returns every loaded cell intersecting bounds; a full
// scan is acceptable at global scale.
func (g *Grid) MoraInBounds(b geo.Bounds) []aviation.MORACell {
	var out []aviation.MORACell
	for _, values := range g.cells.InBounds(b) {
		out = append(out, values...)
	}
	return out
}

// CellCrossing records the first and last cumulative distance at which
// a distinct MORA cell was crossed, for route-analysis display.
type CellCrossing struct {
	Cell                    aviation.MORACell
	FirstCrossingDistanceNM float64
	LastCrossingDistanceNM  float64
}

// Analysis is the output of analyzing a route against the MORA grid.
type Analysis struct {
	MaxMORA, MinMORA, AvgMORA float64
	HaveData                  bool
	Crossings                 []CellCrossing
	IsMountainous             bool
	RequiredClearanceFt       float64
}

// Verdict is the clearance decision.
type Verdict string

const (
	VerdictOK       Verdict = "OK"
	VerdictMarginal Verdict = "MARGINAL"
	VerdictUnsafe   Verdict = "UNSAFE"
)

// AnalyzeRoute samples great-circle points at SampleIntervalNM between
// each adjacent waypoint pair (endpoints included, interior duplicates
// at leg boundaries suppressed), accumulating per-cell and whole-route
// MORA statistics.
func (g *Grid) AnalyzeRoute(waypoints []geo.Point) Analysis {
	var analysis Analysis
	crossingIndex := make(map[[2]int]int) // cell -> index into analysis.Crossings

	cumulative := 0.0
	var sum float64
	var count int

	record := func(p geo.Point, dist float64) {
		cell, ok := g.MoraFor(p.Latitude(), p.Longitude())
		if !ok {
			return
		}
		feet := float64(cell.FeetMSL)
		if !analysis.HaveData {
			analysis.MaxMORA, analysis.MinMORA = feet, feet
			analysis.HaveData = true
		} else {
			if feet > analysis.MaxMORA {
				analysis.MaxMORA = feet
			}
			if feet < analysis.MinMORA {
				analysis.MinMORA = feet
			}
		}
		sum += feet
		count++

		key := [2]int{cell.SWLat, cell.SWLon}
		if idx, seen := crossingIndex[key]; seen {
			analysis.Crossings[idx].LastCrossingDistanceNM = dist
		} else {
			crossingIndex[key] = len(analysis.Crossings)
			analysis.Crossings = append(analysis.Crossings, CellCrossing{
				Cell: cell, FirstCrossingDistanceNM: dist, LastCrossingDistanceNM: dist,
			})
		}
	}

	var lastSampled *geo.Point
	for i := 0; i+1 < len(waypoints); i++ {
		from, to := waypoints[i], waypoints[i+1]
		legDistance, bearing, _ := geo.DistanceAndBearing(from, to)

		if lastSampled == nil {
			record(from, cumulative)
			lastSampled = &from
		}

		for d := SampleIntervalNM; d < legDistance; d += SampleIntervalNM {
			p := geo.Direct(from, bearing, d)
			record(p, cumulative+d)
		}
		cumulative += legDistance
		record(to, cumulative)
		lastSampled = &to
	}
	if len(waypoints) == 1 {
		record(waypoints[0], 0)
	}

	if count > 0 {
		analysis.AvgMORA = sum / float64(count)
	}

	analysis.IsMountainous = analysis.HaveData && (analysis.MaxMORA-ClearanceBufferFt >= MountainousThresholdFt)
	if analysis.IsMountainous {
		analysis.RequiredClearanceFt = 2000
	} else {
		analysis.RequiredClearanceFt = 1000
	}

	return analysis
}

// CheckClearance applies the clearance verdict rules. A naive reading
// that keys both UNSAFE and MARGINAL off "altitude < max(MORA)" would
// make MARGINAL unreachable; the monotonicity invariant (raising
// altitude only ever moves the verdict UNSAFE -> MARGINAL -> OK, never
// back) only holds if UNSAFE's actual threshold is
// max(MORA) - required_clearance, so that is what this implements:
// UNSAFE below the marginal band, MARGINAL within it, OK at or above
// max(MORA).
func CheckClearance(altitudeFt float64, analysis Analysis) Verdict {
	if !analysis.HaveData {
		return VerdictOK
	}
	if altitudeFt < analysis.MaxMORA-analysis.RequiredClearanceFt {
		return VerdictUnsafe
	}
	if altitudeFt < analysis.MaxMORA {
		return VerdictMarginal
	}
	return VerdictOK
}
