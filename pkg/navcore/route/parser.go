package route

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/util"
)

// TokenTyper is the parser's sole database dependency: a token-type
// lookup. A nil TokenTyper puts the parser in "test mode", letting it
// operate without a database; airway and procedure recognition then
// falls back to shape-only regexes.
type TokenTyper interface {
	TokenType(id string) (aviation.Kind, bool)
}

var (
	airwayShape     = regexp.MustCompile(`^[JVQTABGR][0-9]+$`)
	procedureShape  = regexp.MustCompile(`^[A-Z]{3,}\d*$`)
	transitionHalf  = regexp.MustCompile(`^[A-Z]{3,}\d*$`)
	coordinateShape = regexp.MustCompile(`^(\d{4}(\d{2})?)([NS])?/(\d{5}(\d{2})?)([EW])?$`)
)

// Node is the closed set of parse-tree node kinds.
type Node interface{ isNode() }

type WaypointNode struct{ Token string }

func (WaypointNode) isNode() {}

type AirwaySegNode struct {
	From, Airway, To string
}

func (AirwaySegNode) isNode() {}

type ProcedureNode struct {
	Transition string // "" if none
	Name       string
	Explicit   bool
}

func (ProcedureNode) isNode() {}

type CoordinateNode struct {
	Lat, Lon float64
}

func (CoordinateNode) isNode() {}

type DirectNode struct{}

func (DirectNode) isNode() {}

// Parse recognizes a sequence of nodes from tokens using three-token
// lookahead, trying each pattern in a fixed precedence order. typer may
// be nil (test mode).
func Parse(tokens []Token, typer TokenTyper) ([]Node, util.Diagnostics) {
	var diags util.Diagnostics
	var nodes []Node

	isAirway := func(s string) bool {
		if airwayShape.MatchString(s) {
			return true
		}
		if typer != nil {
			if k, ok := typer.TokenType(s); ok && k == aviation.KindAirway {
				return true
			}
		}
		return false
	}
	isProcedure := func(s string) bool {
		if typer != nil {
			if k, ok := typer.TokenType(s); ok {
				return k == aviation.KindProcedure
			}
			return false
		}
		return procedureShape.MatchString(s)
	}

	i := 0
	for i < len(tokens) {
		t := tokens[i].Text

		// 1. DCT keyword.
		if t == "DCT" {
			nodes = append(nodes, DirectNode{})
			i++
			continue
		}

		// 2. Airway segment: WAYPOINT AIRWAY WAYPOINT.
		if i+2 < len(tokens) && isAirway(tokens[i+1].Text) {
			nodes = append(nodes, AirwaySegNode{From: t, Airway: tokens[i+1].Text, To: tokens[i+2].Text})
			i += 2 // lands on the "to" waypoint
			continue
		}

		// 3. Procedure with explicit transition: TRANSITION.PROCEDURE.
		if idx := strings.IndexByte(t, '.'); idx > 0 && idx < len(t)-1 {
			left, right := t[:idx], t[idx+1:]
			if transitionHalf.MatchString(left) && transitionHalf.MatchString(right) {
				nodes = append(nodes, ProcedureNode{Transition: left, Name: right, Explicit: true})
				i++
				continue
			}
		}

		// 4. Procedure base.
		if procedureShape.MatchString(t) && isProcedure(t) {
			nodes = append(nodes, ProcedureNode{Name: t})
			i++
			continue
		}

		// 5. Coordinate.
		if m := coordinateShape.FindStringSubmatch(t); m != nil {
			lat, lon, ok := parseCoordinate(m)
			if ok {
				nodes = append(nodes, CoordinateNode{Lat: lat, Lon: lon})
				i++
				continue
			}
			diags.Add(util.StageParse, util.KindParseError, "coord-range", "coordinate out of range", &tokens[i].Raw)
		}

		// 6. Waypoint: everything else.
		nodes = append(nodes, WaypointNode{Token: t})
		i++
	}

	return nodes, diags
}

func parseCoordinate(m []string) (lat, lon float64, ok bool) {
	latDigits, latHemi := m[1], m[3]
	lonDigits, lonHemi := m[4], m[6]

	lat, ok = parseDegMin(latDigits, 2)
	if !ok {
		return 0, 0, false
	}
	lon, ok = parseDegMin(lonDigits, 3)
	if !ok {
		return 0, 0, false
	}
	if latHemi == "S" {
		lat = -lat
	}
	if lonHemi == "W" {
		lon = -lon
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// parseDegMin parses a DDMM or DDMMSS (or DDDMM/DDDMMSS for longitude)
// digit string into decimal degrees, given the degree-field width.
func parseDegMin(digits string, degWidth int) (float64, bool) {
	if len(digits) != degWidth+2 && len(digits) != degWidth+4 {
		return 0, false
	}
	deg, err := strconv.Atoi(digits[:degWidth])
	if err != nil {
		return 0, false
	}
	min, err := strconv.Atoi(digits[degWidth : degWidth+2])
	if err != nil {
		return 0, false
	}
	sec := 0
	if len(digits) == degWidth+4 {
		sec, err = strconv.Atoi(digits[degWidth+2:])
		if err != nil {
			return 0, false
		}
	}
	return float64(deg) + float64(min)/60 + float64(sec)/3600, true
}
