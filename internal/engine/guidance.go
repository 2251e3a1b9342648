// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"math"

	"github.com/vorlif/spreak"
	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/routebridge/internal/geo"
)

// Maneuver classifies a turn instruction.
type Maneuver int

const (
	ManeuverDepart Maneuver = iota
	ManeuverContinue
	ManeuverSlightLeft
	ManeuverLeft
	ManeuverSharpLeft
	ManeuverSlightRight
	ManeuverRight
	ManeuverSharpRight
	ManeuverUTurn
	ManeuverArrive
)

var maneuverNames = map[Maneuver]string{
	ManeuverDepart:      "depart",
	ManeuverContinue:    "continue",
	ManeuverSlightLeft:  "slight left",
	ManeuverLeft:        "left",
	ManeuverSharpLeft:   "sharp left",
	ManeuverSlightRight: "slight right",
	ManeuverRight:       "right",
	ManeuverSharpRight:  "sharp right",
	ManeuverUTurn:       "u-turn",
	ManeuverArrive:      "arrive",
}

func (m Maneuver) String() string {
	if name, ok := maneuverNames[m]; ok {
		return name
	}
	return "unknown"
}

// Instruction is a single turn-by-turn guidance step. Distance is the length in meters of the
// road stretch that follows the maneuver.
type Instruction struct {
	Maneuver Maneuver
	Street   string
	Bearing  float64
	Location geo.Coordinate
	Distance float64
	Text     string
}

// String returns the display text of the instruction.
func (i Instruction) String() string {
	return i.Text
}

// Turn angle thresholds in degrees.
const (
	continueAngle = 20.0
	slightAngle   = 60.0
	normalAngle   = 120.0
	sharpAngle    = 170.0
)

var compass = []localize.MsgID{
	"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest",
}

// phrases maps a maneuver to its localizable text with and without a street name.
var phrases = map[Maneuver][2]localize.MsgID{
	ManeuverContinue:    {"Continue onto %s", "Continue straight"},
	ManeuverSlightLeft:  {"Turn slight left onto %s", "Turn slight left"},
	ManeuverLeft:        {"Turn left onto %s", "Turn left"},
	ManeuverSharpLeft:   {"Turn sharp left onto %s", "Turn sharp left"},
	ManeuverSlightRight: {"Turn slight right onto %s", "Turn slight right"},
	ManeuverRight:       {"Turn right onto %s", "Turn right"},
	ManeuverSharpRight:  {"Turn sharp right onto %s", "Turn sharp right"},
	ManeuverUTurn:       {"Make a U-turn onto %s", "Make a U-turn"},
}

// step is a stretch of consecutive legs along the same street.
type step struct {
	legs     []leg
	street   string
	distance float64
}

// guidance derives turn instructions for a search result.
type guidance struct {
	graph     *graph
	localizer *spreak.Localizer
}

func (gd guidance) instructions(res searchResult) []Instruction {
	steps := gd.steps(res.legs)
	instructions := make([]Instruction, 0, len(steps)+1)

	for i, st := range steps {
		first := st.legs[0]
		from := gd.graph.nodes[first.from].coord
		bearing := from.BearingTo(gd.graph.nodes[first.to].coord)

		maneuver := ManeuverDepart
		if i > 0 {
			last := steps[i-1].legs[len(steps[i-1].legs)-1]
			inBearing := gd.graph.nodes[last.from].coord.BearingTo(gd.graph.nodes[last.to].coord)
			maneuver = classifyTurn(turnAngle(inBearing, bearing))
		}
		instructions = append(instructions, Instruction{
			Maneuver: maneuver,
			Street:   st.street,
			Bearing:  bearing,
			Location: from,
			Distance: st.distance,
			Text:     gd.phrase(maneuver, st.street, bearing),
		})
	}

	arrival := gd.graph.nodes[res.nodes[len(res.nodes)-1]].coord
	instructions = append(instructions, Instruction{
		Maneuver: ManeuverArrive,
		Location: arrival,
		Text:     gd.phrase(ManeuverArrive, "", 0),
	})
	return instructions
}

// steps groups consecutive legs by street. Unnamed roads are grouped by way.
func (gd guidance) steps(legs []leg) []step {
	var steps []step
	for _, l := range legs {
		name := gd.graph.ways[l.way].name
		if n := len(steps); n > 0 && sameStreet(steps[n-1], l, name) {
			steps[n-1].legs = append(steps[n-1].legs, l)
			steps[n-1].distance += l.length
			continue
		}
		steps = append(steps, step{legs: []leg{l}, street: name, distance: l.length})
	}
	return steps
}

func sameStreet(st step, l leg, name string) bool {
	if name == "" || st.street == "" {
		return st.street == name && st.legs[len(st.legs)-1].way == l.way
	}
	return st.street == name
}

func (gd guidance) phrase(m Maneuver, street string, bearing float64) string {
	switch m {
	case ManeuverDepart:
		dir := gd.localizer.Get(compassDirection(bearing))
		if street == "" {
			return gd.localizer.Getf("Head %s", dir)
		}
		return gd.localizer.Getf("Head %s on %s", dir, street)
	case ManeuverArrive:
		return gd.localizer.Get("You have arrived at your destination")
	}
	texts := phrases[m]
	if street == "" {
		return gd.localizer.Get(texts[1])
	}
	return gd.localizer.Getf(texts[0], street)
}

// turnAngle returns the signed change of direction in degrees, in the range (-180, 180].
// Positive values are turns to the right.
func turnAngle(in, out float64) float64 {
	angle := math.Mod(out-in+540, 360) - 180
	if angle == -180 {
		return 180
	}
	return angle
}

func classifyTurn(angle float64) Maneuver {
	abs := math.Abs(angle)
	right := angle > 0
	switch {
	case abs < continueAngle:
		return ManeuverContinue
	case abs >= sharpAngle:
		return ManeuverUTurn
	case abs < slightAngle && right:
		return ManeuverSlightRight
	case abs < slightAngle:
		return ManeuverSlightLeft
	case abs < normalAngle && right:
		return ManeuverRight
	case abs < normalAngle:
		return ManeuverLeft
	case right:
		return ManeuverSharpRight
	default:
		return ManeuverSharpLeft
	}
}

func compassDirection(bearing float64) localize.MsgID {
	idx := int(math.Mod(bearing+22.5, 360) / 45)
	return compass[idx%len(compass)]
}
