package route

import (
	"math"
	"time"

	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/airnav/navcore/pkg/navcore/util"
	"github.com/airnav/navcore/pkg/navcore/wind"
)

// CruiseParameters are the per-plan inputs the calculator needs beyond
// the waypoint sequence: true airspeed, filed altitude, fuel burn rate,
// and (optionally) wind correction and fuel-planning toggles.
type CruiseParameters struct {
	TrueAirspeedKt      float64
	AltitudeFt          float64
	Date                time.Time
	BurnRateGPH         float64
	UsableFuelGal       float64
	TaxiFuelGal         float64
	ReserveMinutes      float64
	ApplyWindCorrection bool
	ApplyFuelPlanning   bool
	ForecastPeriod      wind.ForecastPeriod
}

// WindSnapshot is the wind vector at the filed altitude and at four
// bracketing altitudes, recorded for display only.
type WindSnapshot struct {
	AltitudeFt int
	Vector     wind.Vector
}

// Leg is one adjacent waypoint pair's full navigation computation.
type Leg struct {
	From, To ExpandedWaypoint

	DistanceNM        float64
	UsedHaversine     bool
	TrueCourseDeg     float64
	MagneticCourseDeg float64

	WindCorrectionAngleDeg float64
	HeadingTrueDeg         float64
	HeadingMagneticDeg     float64
	GroundSpeedKt          float64
	CourseNotMakeable      bool

	ETEMinutes float64
	FuelGal    float64

	WindsAtAltitudes []WindSnapshot
}

// Plan is the calculator's output: legs plus running totals.
type Plan struct {
	Legs []Leg

	TotalDistanceNM float64
	TotalETEMinutes float64
	TotalFuelGal    float64

	FinalFuelOnBoardGal float64
	FuelInsufficient    bool
}

// Calculate produces a Leg for each adjacent waypoint pair in the
// expanded sequence.
func Calculate(waypoints []ExpandedWaypoint, params CruiseParameters, windP wind.Provider, mag wind.MagneticModel) (Plan, util.Diagnostics) {
	var diags util.Diagnostics
	var plan Plan

	forecastPeriod := params.ForecastPeriod
	if forecastPeriod == "" {
		forecastPeriod = wind.DefaultForecastPeriod
	} else if !wind.ValidForecastPeriod(forecastPeriod) {
		diags.Addf(util.StageCalc, util.KindCalcError, "forecast-period-invalid", nil,
			"forecast period %q not recognized, using %s", forecastPeriod, wind.DefaultForecastPeriod)
		forecastPeriod = wind.DefaultForecastPeriod
	}

	fuelOnBoard := params.UsableFuelGal - params.TaxiFuelGal

	for i := 0; i+1 < len(waypoints); i++ {
		from, to := waypoints[i], waypoints[i+1]

		distanceNM, trueCourse, usedHaversine := geo.DistanceAndBearing(from.Point, to.Point)
		if usedHaversine {
			diags.Addf(util.StageCalc, util.KindCalcError, "vincenty-fallback", &from.Identifier,
				"leg %s->%s fell back to haversine distance", from.Identifier, to.Identifier)
		}

		variation := 0.0
		if mag != nil {
			if v, err := mag.Variation(from.Point, params.AltitudeFt, params.Date); err == nil {
				variation = v
			} else {
				diags.Addf(util.StageCalc, util.KindCalcError, "magnetic-lookup-failed", &from.Identifier, "%v", err)
			}
		}
		magneticCourse := geo.NormalizeHeading(trueCourse - variation)

		leg := Leg{
			From: from, To: to,
			DistanceNM: distanceNM, UsedHaversine: usedHaversine,
			TrueCourseDeg: trueCourse, MagneticCourseDeg: magneticCourse,
			HeadingTrueDeg: trueCourse, HeadingMagneticDeg: magneticCourse,
		}

		groundSpeed := params.TrueAirspeedKt
		if params.ApplyWindCorrection && windP != nil {
			mid := geo.NewPoint((from.Point.Latitude()+to.Point.Latitude())/2, (from.Point.Longitude()+to.Point.Longitude())/2)
			v, err := windP.WindVector(mid, params.AltitudeFt, params.Date, forecastPeriod)
			if err != nil {
				diags.Addf(util.StageCalc, util.KindCalcError, "wind-lookup-failed", &from.Identifier, "%v", err)
			} else {
				wca, headingTrue, gs, notMakeable := windCorrection(params.TrueAirspeedKt, v, trueCourse)
				leg.WindCorrectionAngleDeg = wca
				leg.HeadingTrueDeg = headingTrue
				leg.HeadingMagneticDeg = geo.NormalizeHeading(headingTrue - variation)
				groundSpeed = gs
				leg.CourseNotMakeable = notMakeable
				if notMakeable {
					diags.Addf(util.StageCalc, util.KindCalcError, "course-not-makeable", &from.Identifier,
						"leg %s->%s: wind exceeds true airspeed on this course", from.Identifier, to.Identifier)
				}

				leg.WindsAtAltitudes = snapshotWinds(windP, mid, params.AltitudeFt, params.Date, forecastPeriod)
			}
		}
		leg.GroundSpeedKt = math.Max(groundSpeed, 1)

		leg.ETEMinutes = 60 * distanceNM / leg.GroundSpeedKt

		if params.ApplyFuelPlanning {
			leg.FuelGal = leg.ETEMinutes / 60 * params.BurnRateGPH
			fuelOnBoard -= leg.FuelGal
		}

		plan.Legs = append(plan.Legs, leg)
		plan.TotalDistanceNM += leg.DistanceNM
		plan.TotalETEMinutes += leg.ETEMinutes
		plan.TotalFuelGal += leg.FuelGal
	}

	if params.ApplyFuelPlanning {
		plan.FinalFuelOnBoardGal = fuelOnBoard
		reserveGal := params.ReserveMinutes / 60 * params.BurnRateGPH
		plan.FuelInsufficient = fuelOnBoard-reserveGal < 0
	}

	return plan, diags
}

// windCorrection implements the standard wind-triangle closed form.
func windCorrection(tas float64, w wind.Vector, trueCourse float64) (wcaDeg, headingTrue, groundSpeed float64, notMakeable bool) {
	diff := (w.DirectionTrueDeg - trueCourse) * math.Pi / 180
	sinWCA := (w.SpeedKt / tas) * math.Sin(diff)
	// Clamp to asin's domain; an out-of-domain ratio means the wind
	// speed alone already exceeds TAS on this course.
	if sinWCA > 1 {
		sinWCA = 1
	} else if sinWCA < -1 {
		sinWCA = -1
	}
	wca := math.Asin(sinWCA) * 180 / math.Pi

	headingTrue = geo.NormalizeHeading(trueCourse + wca)
	gs := tas*math.Cos(wca*math.Pi/180) - w.SpeedKt*math.Cos(diff)
	if gs < 1 {
		notMakeable = gs < 0
		gs = 1
	}
	return wca, headingTrue, gs, notMakeable
}

// snapshotWinds records the wind vector at the filed altitude and at
// +/-1000, +/-2000 ft, five lookups total.
func snapshotWinds(p wind.Provider, at geo.Point, altitudeFt float64, date time.Time, period wind.ForecastPeriod) []WindSnapshot {
	offsets := []float64{-2000, -1000, 0, 1000, 2000}
	out := make([]WindSnapshot, 0, len(offsets))
	for _, off := range offsets {
		alt := altitudeFt + off
		v, err := p.WindVector(at, alt, date, period)
		if err != nil {
			continue
		}
		out = append(out, WindSnapshot{AltitudeFt: int(alt), Vector: v})
	}
	return out
}
