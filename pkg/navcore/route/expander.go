package route

import (
	"strconv"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/geo"
	"github.com/airnav/navcore/pkg/navcore/util"
)

// ExpandedWaypoint is one materialized point in the final route sequence
// the calculator iterates over leg by leg.
type ExpandedWaypoint struct {
	Identifier string
	Point      geo.Point
	Kind       aviation.Kind
}

// Expand materializes the waypoint sequence from resolved nodes:
// waypoints and coordinates emit themselves, airway
// segments emit the (possibly reversed) fix slice between their
// endpoints, procedures emit transition fixes then body fixes, and
// Direct nodes emit nothing. Consecutive equal identifiers are
// collapsed, which removes the duplicate where an airway's last fix
// equals the next segment's first fix.
func Expand(resolved []Resolved, repo Repository) ([]ExpandedWaypoint, util.Diagnostics) {
	var diags util.Diagnostics
	var out []ExpandedWaypoint

	emit := func(w ExpandedWaypoint) {
		if n := len(out); n > 0 && out[n-1].Identifier == w.Identifier {
			return
		}
		out = append(out, w)
	}

	for _, r := range resolved {
		switch v := r.Node.(type) {
		case WaypointNode:
			if r.Ok {
				emit(ExpandedWaypoint{Identifier: v.Token, Point: r.Point, Kind: r.Kind})
			}

		case CoordinateNode:
			emit(ExpandedWaypoint{Identifier: syntheticCoordName(v), Point: r.Point})

		case DirectNode:
			// No waypoint emitted; signals intent only.

		case AirwaySegNode:
			if !r.Ok {
				diags.Addf(util.StageExpand, util.KindExpandError, "airway-skip", &v.Airway, "skipping unresolved airway segment %s %s %s", v.From, v.Airway, v.To)
				continue
			}
			fromIdx := r.Airway.IndexOf(v.From)
			toIdx := r.Airway.IndexOf(v.To)
			if fromIdx < 0 || toIdx < 0 {
				diags.Addf(util.StageExpand, util.KindExpandError, "airway-endpoint-missing", &v.Airway,
					"endpoint not found on airway %s", v.Airway)
				continue
			}

			var seq []string
			if fromIdx < toIdx {
				seq = r.Airway.FixSequence[fromIdx : toIdx+1]
			} else {
				seq = reverseStrings(r.Airway.FixSequence[toIdx : fromIdx+1])
			}
			for _, fixID := range seq {
				p, k, ok := repo.ResolveWaypoint(fixID)
				if !ok {
					continue
				}
				emit(ExpandedWaypoint{Identifier: fixID, Point: p, Kind: k})
			}

		case ProcedureNode:
			if !r.Ok {
				diags.Addf(util.StageExpand, util.KindExpandError, "procedure-skip", &v.Name, "skipping unresolved procedure %s", v.Name)
				continue
			}
			var fixIDs []string
			if r.Transition != "" {
				if t, ok := r.Procedure.Transition(r.Transition); ok {
					fixIDs = append(fixIDs, t.Fixes...)
				}
			}
			fixIDs = append(fixIDs, r.Procedure.Body...)
			for _, fixID := range fixIDs {
				p, k, ok := repo.ResolveWaypoint(fixID)
				if !ok {
					continue
				}
				emit(ExpandedWaypoint{Identifier: fixID, Point: p, Kind: k})
			}
		}
	}

	return out, diags
}

func reverseStrings(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func syntheticCoordName(c CoordinateNode) string {
	ns, ew := "N", "E"
	lat, lon := c.Lat, c.Lon
	if lat < 0 {
		ns = "S"
		lat = -lat
	}
	if lon < 0 {
		ew = "W"
		lon = -lon
	}
	return ns + strconv.Itoa(int(lat*100)) + "/" + ew + strconv.Itoa(int(lon*100))
}
