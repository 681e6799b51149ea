package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mudtools/msdpmap/internal/mapper/terrain"
)

// ErrExitConflict reports that SetExit refused to overwrite an existing
// exit with a conflicting unconfirmed target. The old value stands.
var ErrExitConflict = errors.New("exit conflict")

// Exit is a directed edge to another room.
type Exit struct {
	// To is the destination room id.
	To string
	// Confirmed records whether the edge was established by an observed
	// move (the player actually walked it) rather than inferred from an
	// EXITS listing.
	Confirmed bool
}

// Room is one node of the graph. Rooms are created the first time their
// id is observed and updated in place afterwards; they are never removed
// during a session.
type Room struct {
	// ID is the server-assigned stable identifier.
	ID string
	// Name is the display name last reported by the server.
	Name string
	// Area is the grouping label last reported by the server.
	Area string
	// Terrain is the classified terrain category.
	Terrain terrain.Category
	// Exits maps directions to known edges. Partial by nature.
	Exits map[Direction]Exit
}

// ExitTo returns the first direction whose exit leads to the given room,
// scanning in AllDirections order.
//
// Postcondition: Returns (direction, true) if an exit leads to toID, or
// ("", false) otherwise.
func (r *Room) ExitTo(toID string) (Direction, bool) {
	for _, d := range AllDirections {
		if e, ok := r.Exits[d]; ok && e.To == toID {
			return d, true
		}
	}
	return "", false
}

// Graph is the session's room graph. It exclusively owns all room and
// exit data; callers hold room ids, not copies of room content.
//
// Graph is not synchronized. It is owned by a single engine instance and
// mutated only from that instance's event loop.
type Graph struct {
	rooms map[string]*Room
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{rooms: make(map[string]*Room)}
}

// UpsertRoom creates the room if absent, else updates its mutable
// fields in place. The id never changes; the last written name, area,
// and terrain win. Reports whether the room was newly created.
//
// Precondition: id must be non-empty.
func (g *Graph) UpsertRoom(id, name, area string, t terrain.Category) (created bool, err error) {
	if id == "" {
		return false, fmt.Errorf("graph: room id must not be empty")
	}
	r, ok := g.rooms[id]
	if !ok {
		r = &Room{ID: id, Exits: make(map[Direction]Exit)}
		g.rooms[id] = r
		created = true
	}
	r.Name = name
	r.Area = area
	r.Terrain = t
	return created, nil
}

// SetExit records a directed edge from one room to another.
//
// Confirmed edges (observed moves) always win and overwrite whatever was
// there. Unconfirmed edges are guesses from EXITS listings: setting the
// same target again is an idempotent no-op, but a guess that contradicts
// an existing edge is refused with ErrExitConflict so the caller can log
// it — stale exit trust is a known source of navigation bugs.
//
// Precondition: fromID must name an existing room; dir and toID must be
// non-empty.
// Postcondition: Reports whether the edge changed.
func (g *Graph) SetExit(fromID string, dir Direction, toID string, confirmed bool) (changed bool, err error) {
	if dir == "" || toID == "" {
		return false, fmt.Errorf("graph: exit direction and target must not be empty")
	}
	from, ok := g.rooms[fromID]
	if !ok {
		return false, fmt.Errorf("graph: room %q not found", fromID)
	}

	existing, exists := from.Exits[dir]
	switch {
	case !exists:
		from.Exits[dir] = Exit{To: toID, Confirmed: confirmed}
		return true, nil
	case existing.To == toID:
		// Same target: upgrade to confirmed if the move was observed.
		if confirmed && !existing.Confirmed {
			from.Exits[dir] = Exit{To: toID, Confirmed: true}
		}
		return false, nil
	case confirmed:
		from.Exits[dir] = Exit{To: toID, Confirmed: true}
		return true, nil
	default:
		return false, fmt.Errorf("graph: room %q exit %q already leads to %q, refusing unconfirmed %q: %w",
			fromID, dir, existing.To, toID, ErrExitConflict)
	}
}

// GetRoom returns the room with the given id.
//
// Postcondition: Returns (room, true) if found, or (nil, false)
// otherwise. The returned pointer is owned by the graph.
func (g *Graph) GetRoom(id string) (*Room, bool) {
	r, ok := g.rooms[id]
	return r, ok
}

// RoomCount returns the number of known rooms.
func (g *Graph) RoomCount() int {
	return len(g.rooms)
}

// RoomIDs returns the ids of all known rooms, sorted, so exports and
// saves that iterate the graph are reproducible.
//
// Postcondition: Returns a non-nil sorted slice; may be empty.
func (g *Graph) RoomIDs() []string {
	ids := make([]string, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
