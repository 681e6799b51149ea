package msdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// body builds a payload using readable markers.
func body(parts ...interface{}) []byte {
	var out []byte
	for _, p := range parts {
		switch v := p.(type) {
		case byte:
			out = append(out, v)
		case string:
			out = append(out, []byte(v)...)
		}
	}
	return out
}

func TestParseBody_Scalar(t *testing.T) {
	pairs, err := ParseBody(body(markVar, "HEALTH", markVal, "1275"))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "HEALTH", pairs[0].Name)
	assert.Equal(t, 1275, pairs[0].Value.AsInt(0))
}

func TestParseBody_MultipleVariables(t *testing.T) {
	pairs, err := ParseBody(body(
		markVar, "HEALTH", markVal, "100",
		markVar, "MOVEMENT", markVal, "80",
	))
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "HEALTH", pairs[0].Name)
	assert.Equal(t, "MOVEMENT", pairs[1].Name)
}

func TestParseBody_RoomTable(t *testing.T) {
	pairs, err := ParseBody(body(
		markVar, "ROOM", markVal, markTableOpen,
		markVar, "VNUM", markVal, "1001",
		markVar, "NAME", markVal, "Test Room",
		markVar, "AREA", markVal, "Midgaard",
		markVar, "TERRAIN", markVal, "city",
		markVar, "EXITS", markVal, markTableOpen,
		markVar, "n", markVal, "1002",
		markVar, "e", markVal, "1003",
		markTableClose,
		markTableClose,
	))
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	room := pairs[0].Value
	assert.Equal(t, KindTable, room.Kind())
	assert.Equal(t, "1001", room.FieldString("VNUM", ""))
	assert.Equal(t, "Test Room", room.FieldString("NAME", ""))

	exits, ok := room.Field("EXITS")
	require.True(t, ok)
	assert.Equal(t, []string{"e", "n"}, exits.Keys())
	assert.Equal(t, "1002", exits.FieldString("n", ""))
}

func TestParseBody_NestedArrayOfTables(t *testing.T) {
	pairs, err := ParseBody(body(
		markVar, "AFFECTS", markVal, markArrayOpen,
		markVal, markTableOpen, markVar, "NAME", markVal, "Hasted", markTableClose,
		markVal, markTableOpen, markVar, "NAME", markVal, "Sanctuary", markTableClose,
		markArrayClose,
	))
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	affects := pairs[0].Value
	require.Equal(t, 2, affects.Len())
	first, ok := affects.Index(0)
	require.True(t, ok)
	assert.Equal(t, "Hasted", first.FieldString("NAME", ""))
}

func TestParseBody_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"value before variable", body(markVal, "orphan")},
		{"unterminated table", body(markVar, "ROOM", markVal, markTableOpen, markVar, "VNUM", markVal, "1")},
		{"unterminated array", body(markVar, "LIST", markVal, markArrayOpen, markVal, "x")},
		{"variable without value", body(markVar, "HEALTH")},
		{"empty variable name", body(markVar, markVal, "10")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBody(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestParseBody_Empty(t *testing.T) {
	pairs, err := ParseBody(nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestEncode_RoundTrip(t *testing.T) {
	v := Table(map[string]Value{
		"VNUM": String("1001"),
		"EXITS": Table(map[string]Value{
			"n": String("1002"),
		}),
		"FLAGS": Array(String("safe"), String("indoors")),
	})

	framed := Encode("ROOM", v)
	require.Greater(t, len(framed), 5)
	assert.Equal(t, []byte{IAC, SB, TeloptMSDP}, framed[:3])
	assert.Equal(t, []byte{IAC, SE}, framed[len(framed)-2:])

	pairs, err := ParseBody(framed[3 : len(framed)-2])
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "ROOM", pairs[0].Name)
	assert.Equal(t, "1001", pairs[0].Value.FieldString("VNUM", ""))

	flags, ok := pairs[0].Value.Field("FLAGS")
	require.True(t, ok)
	assert.Equal(t, 2, flags.Len())
}

func TestEncodeCommand(t *testing.T) {
	framed := EncodeCommand("REPORT", "ROOM")
	pairs, err := ParseBody(framed[3 : len(framed)-2])
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "REPORT", pairs[0].Name)
	assert.Equal(t, "ROOM", pairs[0].Value.Str())

	framed = EncodeCommand("REPORT", "ROOM", "WORLD_TIME")
	pairs, err = ParseBody(framed[3 : len(framed)-2])
	require.NoError(t, err)
	assert.Equal(t, 2, pairs[0].Value.Len())
}
