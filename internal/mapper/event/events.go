// Package event defines the typed events the mapper consumes and the
// decoder that produces them from raw MSDP variables. Downstream code
// switches over the closed Event set instead of probing loosely typed
// protocol tables.
package event

import "github.com/mudtools/msdpmap/internal/mapper/graph"

// Mode is the positioning model the player is currently in.
type Mode string

const (
	// ModeUnknown is the initial state before the server has said anything.
	ModeUnknown Mode = "unknown"
	// ModeRoom means discrete room-graph positioning.
	ModeRoom Mode = "room"
	// ModeWilderness means continuous (x, y) positioning.
	ModeWilderness Mode = "wilderness"
)

// Event is one decoded protocol update. Implementations form a closed
// set: RoomUpdated, PositionChanged, EnvironmentChanged, VariableIgnored.
type Event interface {
	mapperEvent()
}

// RoomUpdated carries the server's current description of a room. The
// update always refers to the player's own location; MSDP reports the
// ROOM variable only for the room the player occupies.
type RoomUpdated struct {
	// ID is the server-assigned room identifier. Always non-empty.
	ID string
	// Name is the display name; may be empty.
	Name string
	// Area is the grouping label; may be empty.
	Area string
	// TerrainToken is the raw sector token; classification happens
	// downstream.
	TerrainToken string
	// Exits maps directions to the reported target room ids. Partial.
	Exits map[graph.Direction]string
}

// PositionChanged carries a wilderness coordinate update.
type PositionChanged struct {
	// Area is the wilderness area identifier; may be empty.
	Area string
	// X and Y are unbounded continuous-map coordinates.
	X, Y int
}

// EnvironmentChanged signals an explicit switch between positioning
// models.
type EnvironmentChanged struct {
	Mode Mode
}

// VariableIgnored records a protocol variable that produced no mapping
// effect, either because it is irrelevant or because its payload was
// unusable. Reason is a human-readable diagnostic.
type VariableIgnored struct {
	Name   string
	Reason string
}

func (RoomUpdated) mapperEvent()        {}
func (PositionChanged) mapperEvent()    {}
func (EnvironmentChanged) mapperEvent() {}
func (VariableIgnored) mapperEvent()    {}
