package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudtools/msdpmap/internal/mapper/terrain"
)

func TestUpsertRoom_CreateThenUpdate(t *testing.T) {
	g := New()

	created, err := g.UpsertRoom("1001", "Temple Square", "Midgaard", terrain.City)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = g.UpsertRoom("1001", "Temple Square (rebuilt)", "Midgaard", terrain.Indoor)
	require.NoError(t, err)
	assert.False(t, created)

	r, ok := g.GetRoom("1001")
	require.True(t, ok)
	assert.Equal(t, "1001", r.ID)
	assert.Equal(t, "Temple Square (rebuilt)", r.Name)
	assert.Equal(t, terrain.Indoor, r.Terrain)
	assert.Equal(t, 1, g.RoomCount())
}

func TestUpsertRoom_EmptyID(t *testing.T) {
	g := New()
	_, err := g.UpsertRoom("", "Nowhere", "", terrain.Unknown)
	assert.Error(t, err)
	assert.Equal(t, 0, g.RoomCount())
}

func TestGetRoom_Missing(t *testing.T) {
	g := New()
	r, ok := g.GetRoom("nope")
	assert.False(t, ok)
	assert.Nil(t, r)
}

func TestSetExit_CreateAndIdempotent(t *testing.T) {
	g := mustRooms(t, "1", "2")

	changed, err := g.SetExit("1", North, "2", true)
	require.NoError(t, err)
	assert.True(t, changed)

	// Same confirmed value twice is a no-op.
	changed, err = g.SetExit("1", North, "2", true)
	require.NoError(t, err)
	assert.False(t, changed)

	r, _ := g.GetRoom("1")
	assert.Equal(t, Exit{To: "2", Confirmed: true}, r.Exits[North])
}

func TestSetExit_UnconfirmedConflictRefused(t *testing.T) {
	g := mustRooms(t, "1", "2", "3")

	_, err := g.SetExit("1", North, "2", true)
	require.NoError(t, err)

	// A guess contradicting confirmed data loses; the old value stands.
	_, err = g.SetExit("1", North, "3", false)
	require.ErrorIs(t, err, ErrExitConflict)

	r, _ := g.GetRoom("1")
	assert.Equal(t, "2", r.Exits[North].To)
}

func TestSetExit_ConfirmedOverwritesGuess(t *testing.T) {
	g := mustRooms(t, "1", "2", "3")

	_, err := g.SetExit("1", North, "2", false)
	require.NoError(t, err)

	// The player actually walked north and arrived in 3.
	changed, err := g.SetExit("1", North, "3", true)
	require.NoError(t, err)
	assert.True(t, changed)

	r, _ := g.GetRoom("1")
	assert.Equal(t, Exit{To: "3", Confirmed: true}, r.Exits[North])
}

func TestSetExit_ConfirmedUpgradesSameTarget(t *testing.T) {
	g := mustRooms(t, "1", "2")

	_, err := g.SetExit("1", North, "2", false)
	require.NoError(t, err)

	changed, err := g.SetExit("1", North, "2", true)
	require.NoError(t, err)
	assert.False(t, changed)

	r, _ := g.GetRoom("1")
	assert.True(t, r.Exits[North].Confirmed)
}

func TestSetExit_UnknownFromRoom(t *testing.T) {
	g := New()
	_, err := g.SetExit("missing", North, "2", true)
	assert.Error(t, err)
}

func TestRoom_ExitTo(t *testing.T) {
	g := mustRooms(t, "1", "2")
	_, err := g.SetExit("1", East, "2", true)
	require.NoError(t, err)

	r, _ := g.GetRoom("1")
	dir, ok := r.ExitTo("2")
	require.True(t, ok)
	assert.Equal(t, East, dir)

	_, ok = r.ExitTo("99")
	assert.False(t, ok)
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"n": North, "sw": Southwest, "u": Up, "d": Down,
		"north": North, "out": Out, "i": In,
	}
	for token, want := range cases {
		got, ok := ParseDirection(token)
		require.True(t, ok, "token %q", token)
		assert.Equal(t, want, got)
	}

	_, ok := ParseDirection("widdershins")
	assert.False(t, ok)
}

func TestDirection_Opposite(t *testing.T) {
	for _, d := range AllDirections {
		assert.Equal(t, d, d.Opposite().Opposite(), "direction %q", d)
	}
	assert.Equal(t, Direction(""), Direction("sideways").Opposite())
}

// mustRooms builds a graph containing the given rooms with no exits.
func mustRooms(t *testing.T, ids ...string) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		_, err := g.UpsertRoom(id, "Room "+id, "Test Area", terrain.Unknown)
		require.NoError(t, err)
	}
	return g
}

func TestRoomIDs_Sorted(t *testing.T) {
	// Insertion order must not leak into the listing; exports and store
	// saves iterate it and need reproducible output.
	g := mustRooms(t, "2001", "1002", "1001", "30", "4")

	want := []string{"1001", "1002", "2001", "30", "4"}
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, g.RoomIDs())
	}
}
