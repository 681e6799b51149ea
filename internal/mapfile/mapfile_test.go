package mapfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/mapper/terrain"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, r := range []struct {
		id, name, area string
		cat            terrain.Category
	}{
		{"1001", "Temple Square", "Midgaard", terrain.City},
		{"1002", "Market Street", "Midgaard", terrain.Road},
		{"2001", "Dark Forest", "Haon Dor", terrain.Forest},
	} {
		_, err := g.UpsertRoom(r.id, r.name, r.area, r.cat)
		require.NoError(t, err)
	}
	_, err := g.SetExit("1001", graph.North, "1002", true)
	require.NoError(t, err)
	_, err = g.SetExit("1002", graph.South, "1001", true)
	require.NoError(t, err)
	_, err = g.SetExit("1002", graph.West, "2001", false)
	require.NoError(t, err)
	return g
}

func TestExportImportRoundTrip(t *testing.T) {
	g := buildTestGraph(t)

	doc := Export(g)
	assert.Equal(t, formatVersion, doc.Version)
	require.Len(t, doc.Rooms, 3)

	restored, err := Import(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.RoomCount())

	room, ok := restored.GetRoom("1002")
	require.True(t, ok)
	assert.Equal(t, "Market Street", room.Name)
	assert.Equal(t, terrain.Road, room.Terrain)
	assert.True(t, room.Exits[graph.South].Confirmed)
	assert.False(t, room.Exits[graph.West].Confirmed)
}

func TestExportIsDeterministic(t *testing.T) {
	g := buildTestGraph(t)

	first := Export(g)
	second := Export(g)
	assert.Equal(t, first, second)

	// Rooms sorted by id, exits in canonical direction order.
	assert.Equal(t, "1001", first.Rooms[0].ID)
	assert.Equal(t, "1002", first.Rooms[1].ID)
	assert.Equal(t, "2001", first.Rooms[2].ID)
	require.Len(t, first.Rooms[1].Exits, 2)
	assert.Equal(t, "south", first.Rooms[1].Exits[0].Direction)
	assert.Equal(t, "west", first.Rooms[1].Exits[1].Direction)
}

func TestImportRejectsUnknownDirection(t *testing.T) {
	doc := &Document{
		Version: formatVersion,
		Rooms: []RoomSpec{
			{ID: "1", Exits: []ExitSpec{{Direction: "portal", Target: "2"}}},
		},
	}
	_, err := Import(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown direction")
}

func TestImportRejectsWrongVersion(t *testing.T) {
	_, err := Import(&Document{Version: 99})
	require.Error(t, err)
}

func TestWriteAndReadFile(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "map.yaml")

	require.NoError(t, WriteFile(path, g))

	restored, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.RoomCount(), restored.RoomCount())

	room, ok := restored.GetRoom("2001")
	require.True(t, ok)
	assert.Equal(t, "Haon Dor", room.Area)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
