package graph

import (
	"errors"
	"fmt"
)

// ErrNoPath reports that no sequence of known exits connects two rooms.
var ErrNoPath = errors.New("no path")

// ShortestPath returns a minimal-length room-id path from fromID to
// toID, excluding fromID itself. Edges are unit weight; search is
// breadth-first with neighbors expanded in AllDirections order, so ties
// between equal-length paths resolve deterministically.
//
// Postcondition: ShortestPath(a, a) returns an empty path and nil error.
// An unreachable or unknown target returns ErrNoPath, never an
// empty-but-successful path. The visited set guarantees the result is
// cycle-free.
func (g *Graph) ShortestPath(fromID, toID string) ([]string, error) {
	if _, ok := g.rooms[fromID]; !ok {
		return nil, fmt.Errorf("graph: start room %q not found: %w", fromID, ErrNoPath)
	}
	if fromID == toID {
		return []string{}, nil
	}
	if _, ok := g.rooms[toID]; !ok {
		return nil, fmt.Errorf("graph: target room %q not found: %w", toID, ErrNoPath)
	}

	// parent[id] = predecessor on the first (shortest) discovery.
	parent := make(map[string]string)
	visited := map[string]bool{fromID: true}
	queue := []string{fromID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		room := g.rooms[current]
		for _, d := range AllDirections {
			exit, ok := room.Exits[d]
			if !ok || visited[exit.To] {
				continue
			}
			if _, known := g.rooms[exit.To]; !known {
				// Dangling edge into an unmapped room: not traversable.
				continue
			}
			visited[exit.To] = true
			parent[exit.To] = current
			if exit.To == toID {
				return rebuild(parent, fromID, toID), nil
			}
			queue = append(queue, exit.To)
		}
	}

	return nil, fmt.Errorf("graph: %q unreachable from %q: %w", toID, fromID, ErrNoPath)
}

func rebuild(parent map[string]string, fromID, toID string) []string {
	var rev []string
	for id := toID; id != fromID; id = parent[id] {
		rev = append(rev, id)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}
