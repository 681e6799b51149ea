// Package track maintains the player's current position in the two
// positioning models the server can put them in: a discrete room id, or
// continuous wilderness coordinates.
package track

import (
	"github.com/mudtools/msdpmap/internal/mapper/event"
	"github.com/mudtools/msdpmap/internal/mapper/graph"
)

// RoomPosition is the discrete variant: a reference into the room
// graph's keyspace.
type RoomPosition struct {
	RoomID string
}

// WildernessPosition is the continuous variant. Coordinates are
// unbounded; no range checking applies.
type WildernessPosition struct {
	Area string
	X, Y int
}

// Tracker holds the current position pointer. Exactly one variant is
// active at a time, selected by explicit environment transitions. The
// inactive variant keeps its last value so re-entering a mode resumes
// where the player left it, but that parked value is not authoritative.
//
// Tracker is owned by a single engine instance and is not synchronized.
type Tracker struct {
	mode   event.Mode
	room   RoomPosition
	wild   WildernessPosition
	facing graph.Direction
}

// New creates a Tracker in the unknown mode with no position.
func New() *Tracker {
	return &Tracker{mode: event.ModeUnknown}
}

// Mode returns the active positioning model.
func (t *Tracker) Mode() event.Mode { return t.mode }

// SetMode switches the active variant. Switching to the current mode is
// a no-op. The previously active variant's value is retained.
func (t *Tracker) SetMode(m event.Mode) {
	t.mode = m
}

// ObserveRoom records the player's arrival in a room. The update only
// applies in room mode; in other modes it is ignored and reported as
// unchanged. Reports whether the current room actually changed.
func (t *Tracker) ObserveRoom(roomID string) (changed bool) {
	if t.mode != event.ModeRoom || roomID == "" {
		return false
	}
	if t.room.RoomID == roomID {
		return false
	}
	t.room = RoomPosition{RoomID: roomID}
	return true
}

// ObservePosition records a wilderness coordinate update. Only applies
// in wilderness mode. Reports whether the position changed.
func (t *Tracker) ObservePosition(area string, x, y int) (changed bool) {
	if t.mode != event.ModeWilderness {
		return false
	}
	next := WildernessPosition{Area: area, X: x, Y: y}
	if t.wild == next {
		return false
	}
	t.wild = next
	return true
}

// CurrentRoom returns the room position.
//
// Postcondition: ok is true only in room mode with a known room.
func (t *Tracker) CurrentRoom() (pos RoomPosition, ok bool) {
	if t.mode != event.ModeRoom || t.room.RoomID == "" {
		return RoomPosition{}, false
	}
	return t.room, true
}

// CurrentWilderness returns the wilderness position.
//
// Postcondition: ok is true only in wilderness mode.
func (t *Tracker) CurrentWilderness() (pos WildernessPosition, ok bool) {
	if t.mode != event.ModeWilderness {
		return WildernessPosition{}, false
	}
	return t.wild, true
}

// ParkedRoom returns the last room position regardless of mode. Useful
// for resuming when the player re-enters room mode.
func (t *Tracker) ParkedRoom() RoomPosition { return t.room }

// SetFacing records the last-known movement direction.
func (t *Tracker) SetFacing(d graph.Direction) { t.facing = d }

// Facing returns the last-known movement direction, or "" if the player
// has not moved yet.
func (t *Tracker) Facing() graph.Direction { return t.facing }
