// Package graph holds the in-memory room graph built from live server
// data: rooms keyed by their server-assigned id, directed exits between
// them, and unit-weight shortest-path search over the exits.
package graph

// Direction is a movement direction and exit key.
type Direction string

// The closed direction vocabulary. In and Out are included because some
// servers expose them as portal exits.
const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
	Up        Direction = "up"
	Down      Direction = "down"
	In        Direction = "in"
	Out       Direction = "out"
)

// AllDirections lists every direction in a fixed order. Path search and
// plan building iterate in this order, which makes tie-breaking between
// equal-length paths deterministic.
var AllDirections = []Direction{
	North, South, East, West,
	Northeast, Northwest, Southeast, Southwest,
	Up, Down, In, Out,
}

// shortNames maps the abbreviated exit keys servers send in MSDP EXITS
// tables to full directions.
var shortNames = map[string]Direction{
	"n": North, "s": South, "e": East, "w": West,
	"ne": Northeast, "nw": Northwest, "se": Southeast, "sw": Southwest,
	"u": Up, "d": Down, "i": In, "o": Out,
}

// ParseDirection resolves a direction token, accepting both full names
// and the abbreviated forms used on the wire ("n", "sw", "u", ...).
//
// Postcondition: Returns (direction, true) for a known token, or
// ("", false) otherwise.
func ParseDirection(token string) (Direction, bool) {
	if d, ok := shortNames[token]; ok {
		return d, true
	}
	for _, d := range AllDirections {
		if string(d) == token {
			return d, true
		}
	}
	return "", false
}

// Opposite returns the reverse direction, or "" for unknown directions.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	case Up:
		return Down
	case Down:
		return Up
	case In:
		return Out
	case Out:
		return In
	default:
		return ""
	}
}
