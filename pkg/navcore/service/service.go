// Package service orchestrates the route pipeline and terrain analysis
// behind the single synchronous entry point a caller (the CLI, or any
// future HTTP front end) actually needs. Grounded on mmp-vice's
// top-level Sim.SetScratchpad/Sim-facing dispatch pattern in
// pkg/sim/sim.go, which sequences stage-by-stage processing behind one
// request method and accumulates failures onto a returned result rather
// than returning early; here the stages are Lex/Parse/Resolve/Expand/
// Calculate plus terrain analysis instead of a single ATC command.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/airnav/navcore/pkg/navcore/query"
	"github.com/airnav/navcore/pkg/navcore/route"
	"github.com/airnav/navcore/pkg/navcore/terrain"
	"github.com/airnav/navcore/pkg/navcore/util"
	"github.com/airnav/navcore/pkg/navcore/wind"
)

// PlanningOptions is the caller-supplied, per-request cruise and
// feature configuration. Distinct from config.Config,
// which holds process-lifetime ambient settings (data source URLs,
// cache location, log level): PlanningOptions changes on every request,
// config.Config does not.
type PlanningOptions struct {
	TrueAirspeedKt float64
	AltitudeFt     float64
	Date           time.Time
	BurnRateGPH    float64
	UsableFuelGal  float64
	TaxiFuelGal    float64
	ReserveMinutes float64

	ApplyWindCorrection bool
	ApplyFuelPlanning   bool
	ApplyTerrainCheck   bool

	// ForecastPeriod selects which winds-aloft snapshot the wind
	// provider consults (06Z, 12Z, or 24Z); empty defaults to
	// wind.DefaultForecastPeriod.
	ForecastPeriod wind.ForecastPeriod
}

// Result bundles everything a planning request produces: the resolved
// waypoint sequence, the leg-by-leg plan, the terrain analysis (if
// requested), and every diagnostic accumulated along the way. Nothing
// here is persisted; each Result is produced by the calculator fresh
// for its one request.
type Result struct {
	Waypoints        []route.ExpandedWaypoint
	Plan             route.Plan
	TerrainAnalysis  terrain.Analysis
	ClearanceVerdict terrain.Verdict
	Diagnostics      util.Diagnostics
}

// RouteService is the single orchestration entry point tying the
// repository-backed query engine, the route pipeline, and the terrain
// analyzer together for one planning request at a time. It holds no
// per-request state between calls to Plan.
type RouteService struct {
	Engine      *query.Engine
	TerrainGrid *terrain.Grid
	Wind        wind.Provider
	Magnetic    wind.MagneticModel
}

// NewRouteService constructs a RouteService from a loaded repository.
// terrainGrid and windP/mag may be nil; terrain analysis and wind
// correction are then simply unavailable (diagnosed, never fatal,
// except for the one documented fatal precondition checked up front in
// Plan).
func NewRouteService(repo *aviation.Repository, windP wind.Provider, mag wind.MagneticModel) *RouteService {
	engine := query.Build(repo.Snapshot())
	var terrainGrid *terrain.Grid
	if cells := repo.MORACells(); len(cells) > 0 {
		terrainGrid = terrain.BuildGrid(cells)
	}
	return &RouteService{
		Engine:      engine,
		TerrainGrid: terrainGrid,
		Wind:        windP,
		Magnetic:    mag,
	}
}

// Plan runs the full Lex -> Parse -> Resolve -> Expand -> Calculate
// pipeline over routeString plus, when requested, a terrain clearance
// check against the filed altitude. The only fatal precondition is
// fuel planning requested while wind correction is disabled: the
// caller-supplied fuel options are internally inconsistent in that
// case, because fuel burn is computed from ground speed, and ground
// speed without a wind correction pass is just true airspeed --
// silently planning fuel off of an airspeed nobody flew would be worse
// than refusing the request. Every other failure mode is non-fatal and
// travels home on Result.Diagnostics instead of the error return.
func (s *RouteService) Plan(ctx context.Context, routeString string, opts PlanningOptions) (Result, error) {
	if opts.ApplyFuelPlanning && !opts.ApplyWindCorrection {
		return Result{}, fmt.Errorf("service: fuel planning requires wind correction to be enabled")
	}

	var diags util.Diagnostics

	tokens := route.Lex(routeString)

	var typer route.TokenTyper = s.Engine
	nodes, parseDiags := route.Parse(tokens, typer)
	diags.Merge(parseDiags)

	resolved, resolveDiags := route.Resolve(nodes, s.Engine)
	diags.Merge(resolveDiags)

	waypoints, expandDiags := route.Expand(resolved, s.Engine)
	diags.Merge(expandDiags)

	params := route.CruiseParameters{
		TrueAirspeedKt:      opts.TrueAirspeedKt,
		AltitudeFt:          opts.AltitudeFt,
		Date:                opts.Date,
		BurnRateGPH:         opts.BurnRateGPH,
		UsableFuelGal:       opts.UsableFuelGal,
		TaxiFuelGal:         opts.TaxiFuelGal,
		ReserveMinutes:      opts.ReserveMinutes,
		ApplyWindCorrection: opts.ApplyWindCorrection,
		ApplyFuelPlanning:   opts.ApplyFuelPlanning,
		ForecastPeriod:      opts.ForecastPeriod,
	}
	plan, calcDiags := route.Calculate(waypoints, params, s.Wind, s.Magnetic)
	diags.Merge(calcDiags)
	if opts.ApplyWindCorrection && s.Wind == nil {
		diags.Add(util.StageCalc, util.KindCalcError, "wind_unavailable", "no wind provider configured, skipping wind correction", nil)
	}

	result := Result{
		Waypoints: waypoints,
		Plan:      plan,
	}

	if opts.ApplyTerrainCheck {
		if s.TerrainGrid == nil {
			diags.Add(util.StageCalc, util.KindCalcError, "terrain_unavailable", "no MORA data loaded, skipping clearance check", nil)
		} else {
			points := make([]geo.Point, len(waypoints))
			for i, w := range waypoints {
				points[i] = w.Point
			}
			result.TerrainAnalysis = s.TerrainGrid.AnalyzeRoute(points)
			result.ClearanceVerdict = terrain.CheckClearance(opts.AltitudeFt, result.TerrainAnalysis)
		}
	}

	result.Diagnostics = diags
	return result, nil
}
