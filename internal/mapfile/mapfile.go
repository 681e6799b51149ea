// Package mapfile reads and writes the YAML map interchange format.
// The format is a flat list of rooms with their exits, ordered by room
// id so exports are diffable.
package mapfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/mapper/terrain"
)

// Document is the top-level YAML structure.
type Document struct {
	Version int        `yaml:"version"`
	Rooms   []RoomSpec `yaml:"rooms"`
}

// RoomSpec holds a single room's data.
type RoomSpec struct {
	ID      string     `yaml:"id"`
	Name    string     `yaml:"name,omitempty"`
	Area    string     `yaml:"area,omitempty"`
	Terrain string     `yaml:"terrain,omitempty"`
	Exits   []ExitSpec `yaml:"exits,omitempty"`
}

// ExitSpec holds a single exit's data.
type ExitSpec struct {
	Direction string `yaml:"direction"`
	Target    string `yaml:"target"`
	Confirmed bool   `yaml:"confirmed,omitempty"`
}

// formatVersion is written to every export and checked on import.
const formatVersion = 1

// Export converts a graph into a Document with rooms and exits in
// deterministic order.
//
// Postcondition: Returns a non-nil Document; an empty graph yields a
// Document with no rooms.
func Export(g *graph.Graph) *Document {
	doc := &Document{Version: formatVersion}
	for _, id := range g.RoomIDs() {
		room, ok := g.GetRoom(id)
		if !ok {
			continue
		}
		spec := RoomSpec{
			ID:      room.ID,
			Name:    room.Name,
			Area:    room.Area,
			Terrain: string(room.Terrain),
		}
		for _, dir := range graph.AllDirections {
			exit, ok := room.Exits[dir]
			if !ok {
				continue
			}
			spec.Exits = append(spec.Exits, ExitSpec{
				Direction: string(dir),
				Target:    exit.To,
				Confirmed: exit.Confirmed,
			})
		}
		doc.Rooms = append(doc.Rooms, spec)
	}
	return doc
}

// Import builds a graph from a Document. Rooms are created before exits
// so forward references resolve; exits naming unknown directions are an
// error, since the file is explicit user input rather than live game
// data.
func Import(doc *Document) (*graph.Graph, error) {
	if doc.Version != formatVersion {
		return nil, fmt.Errorf("mapfile: unsupported format version %d", doc.Version)
	}

	g := graph.New()
	for _, spec := range doc.Rooms {
		if _, err := g.UpsertRoom(spec.ID, spec.Name, spec.Area, terrain.Category(spec.Terrain)); err != nil {
			return nil, fmt.Errorf("mapfile: room %q: %w", spec.ID, err)
		}
	}
	for _, spec := range doc.Rooms {
		for _, exit := range spec.Exits {
			dir, ok := graph.ParseDirection(exit.Direction)
			if !ok {
				return nil, fmt.Errorf("mapfile: room %q: unknown direction %q", spec.ID, exit.Direction)
			}
			if _, err := g.SetExit(spec.ID, dir, exit.Target, exit.Confirmed); err != nil {
				return nil, fmt.Errorf("mapfile: room %q exit %s: %w", spec.ID, exit.Direction, err)
			}
		}
	}
	return g, nil
}

// WriteFile exports a graph to path as YAML.
func WriteFile(path string, g *graph.Graph) error {
	data, err := yaml.Marshal(Export(g))
	if err != nil {
		return fmt.Errorf("mapfile: serialising map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("mapfile: writing %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a map YAML file into a fresh graph.
func ReadFile(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapfile: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mapfile: parsing %s: %w", path, err)
	}
	return Import(&doc)
}
