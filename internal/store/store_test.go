package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/mapper/terrain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "map.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	g := graph.New()
	_, err := g.UpsertRoom("1001", "Temple Square", "Midgaard", terrain.City)
	require.NoError(t, err)
	_, err = g.UpsertRoom("1002", "Market Street", "Midgaard", terrain.Road)
	require.NoError(t, err)
	_, err = g.SetExit("1001", graph.North, "1002", true)
	require.NoError(t, err)
	_, err = g.SetExit("1002", graph.South, "1001", false)
	require.NoError(t, err)

	require.NoError(t, s.SaveGraph(g))

	loaded, err := s.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.RoomCount())

	room, ok := loaded.GetRoom("1001")
	require.True(t, ok)
	assert.Equal(t, "Temple Square", room.Name)
	assert.Equal(t, "Midgaard", room.Area)
	assert.Equal(t, terrain.City, room.Terrain)
	require.Contains(t, room.Exits, graph.North)
	assert.Equal(t, "1002", room.Exits[graph.North].To)
	assert.True(t, room.Exits[graph.North].Confirmed)

	back, ok := loaded.GetRoom("1002")
	require.True(t, ok)
	require.Contains(t, back.Exits, graph.South)
	assert.False(t, back.Exits[graph.South].Confirmed)
}

func TestStore_LoadFromEmptyStore(t *testing.T) {
	s := openTestStore(t)

	g, err := s.LoadGraph()
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 0, g.RoomCount())
}

func TestStore_SaveIsSupersetUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")

	s, err := Open(path)
	require.NoError(t, err)

	g := graph.New()
	_, err = g.UpsertRoom("1", "First", "", terrain.Unknown)
	require.NoError(t, err)
	require.NoError(t, s.SaveGraph(g))
	require.NoError(t, s.Close())

	// Reopen with a graph that has the first room renamed plus one more.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	g2 := graph.New()
	_, err = g2.UpsertRoom("1", "First Renamed", "", terrain.Unknown)
	require.NoError(t, err)
	_, err = g2.UpsertRoom("2", "Second", "", terrain.Unknown)
	require.NoError(t, err)
	require.NoError(t, s.SaveGraph(g2))

	loaded, err := s.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.RoomCount())
	room, ok := loaded.GetRoom("1")
	require.True(t, ok)
	assert.Equal(t, "First Renamed", room.Name)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.db")

	s, err := Open(path)
	require.NoError(t, err)
	g := graph.New()
	_, err = g.UpsertRoom("42", "Answer", "Deep Thought", terrain.Indoor)
	require.NoError(t, err)
	require.NoError(t, s.SaveGraph(g))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.RoomCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_SkipsUnknownExitDirections(t *testing.T) {
	// A record written by a future release may carry directions this
	// build does not know; loading must not fail on them.
	s := openTestStore(t)

	raw := []byte(`{"id":"1","name":"Odd","exits":{"portal":{"to":"2"},"north":{"to":"2","confirmed":true}}}`)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRooms).Put([]byte("1"), raw)
	})
	require.NoError(t, err)

	loaded, err := s.LoadGraph()
	require.NoError(t, err)
	room, ok := loaded.GetRoom("1")
	require.True(t, ok)
	assert.Len(t, room.Exits, 1)
	assert.Contains(t, room.Exits, graph.North)
}
