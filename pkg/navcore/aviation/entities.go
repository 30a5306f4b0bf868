// Package aviation is the data repository: it owns the authoritative and
// fallback data sources, the merge policy, the persistent snapshot cache,
// and the typed entity stores the query engine borrows read references to.
//
// Entity shapes are grounded on mmp-vice's pkg/aviation/db.go
// (FAAAirport, Navaid, Fix) and pkg/aviation/route.go (Airway, STAR), with
// fields added or renamed to cover airport types, runway/frequency/
// airspace-class side tables, and DP/STAR procedures with named
// transitions instead of mmp-vice's scenario-bound STAR-only model.
package aviation

import "github.com/airnav/navcore/pkg/navcore/geo"

// AirportType enumerates the airport classes this repository recognizes.
type AirportType string

const (
	AirportLarge    AirportType = "large"
	AirportMedium   AirportType = "medium"
	AirportSmall    AirportType = "small"
	AirportHeliport AirportType = "heliport"
	AirportSeaplane AirportType = "seaplane"
	AirportClosed   AirportType = "closed"
)

// Airport is keyed by its ICAO code (4 chars) or local identifier (3
// chars containing a digit, e.g. 1B1).
type Airport struct {
	ID           string
	Name         string
	Location     geo.Point
	ElevationFt  int
	Municipality string
	Country      string
	IATA         string // optional
	Type         AirportType
	Source       string // source tag: which DataSource contributed this record
}

// Navaid is a radio aid to navigation (VOR/DME/NDB/TACAN/...).
type Navaid struct {
	ID        string
	Name      string
	Location  geo.Point
	Type      string
	Frequency float64
	Country   string
}

// Fix is a named waypoint without radio-navigation equipment.
type Fix struct {
	ID             string
	Location       geo.Point
	IsReportingFix bool
	State          string
	Country        string
}

// Airway is a named, ordered, bidirectionally-traversable corridor of
// fixes (e.g. Q430). FixSequence never repeats a fix identifier, so
// indices within it are stable for slicing.
type Airway struct {
	ID          string
	FixSequence []string
}

// IndexOf returns the position of fixID within the airway, or -1.
func (a Airway) IndexOf(fixID string) int {
	for i, f := range a.FixSequence {
		if f == fixID {
			return i
		}
	}
	return -1
}

// ProcedureKind distinguishes a departure procedure from an arrival.
type ProcedureKind string

const (
	ProcedureDP   ProcedureKind = "DP"
	ProcedureSTAR ProcedureKind = "STAR"
)

// Transition is a named entry/exit onto a procedure's body from an
// en-route fix.
type Transition struct {
	Name     string
	EntryFix string
	Fixes    []string
}

// Procedure is a DP or STAR: a named, ordered body of fixes with zero or
// more named transitions feeding into (STAR) or out of (DP) the body.
// Reachable by both its human name (e.g. CHPPR1) and its computer code
// (e.g. HIDEY1.HIDEY).
type Procedure struct {
	Name         string
	ComputerCode string
	Kind         ProcedureKind
	Airport      string
	Body         []string
	Transitions  []Transition
}

func (p Procedure) Transition(name string) (Transition, bool) {
	for _, t := range p.Transitions {
		if t.Name == name {
			return t, true
		}
	}
	return Transition{}, false
}

// Frequency is a published radio frequency at an airport (TWR/GND/ATIS/...).
type Frequency struct {
	Type  string
	Value float64
}

// Runway is a published runway at an airport.
type Runway struct {
	End1, End2 string
	LengthFt   int
	Surface    string
}

// AirspaceClass records the controlled-airspace class (and optional hours
// of operation) at an airport.
type AirspaceClass struct {
	Class string
	Hours string // optional, free-form
}

// Kind is the closed sum type the token-type index uses to record which
// entity kind an identifier resolves to: a closed variant type instead
// of ad hoc string constants scattered through the parser.
type Kind int

const (
	KindUnknown Kind = iota
	KindAirport
	KindNavaid
	KindFix
	KindAirway
	KindProcedure
)

func (k Kind) String() string {
	switch k {
	case KindAirport:
		return "AIRPORT"
	case KindNavaid:
		return "NAVAID"
	case KindFix:
		return "FIX"
	case KindAirway:
		return "AIRWAY"
	case KindProcedure:
		return "PROCEDURE"
	default:
		return "UNKNOWN"
	}
}
