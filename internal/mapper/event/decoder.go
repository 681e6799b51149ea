package event

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/msdp"
)

// Protocol variable names the decoder understands. Everything else
// decodes to VariableIgnored.
const (
	varRoom        = "ROOM"
	varPosition    = "POSITION"
	varEnvironment = "ENVIRONMENT"
)

// Decoder turns (variable name, raw MSDP value) pairs into typed
// events. Decode is total: malformed payloads become VariableIgnored
// with a diagnostic, never a panic or an error return.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a Decoder.
//
// Precondition: logger must be non-nil.
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode produces exactly one event for the given variable update.
func (d *Decoder) Decode(name string, v msdp.Value) Event {
	switch name {
	case varRoom:
		return d.decodeRoom(v)
	case varPosition:
		return d.decodePosition(v)
	case varEnvironment:
		return d.decodeEnvironment(v)
	default:
		return VariableIgnored{Name: name, Reason: "not a mapping variable"}
	}
}

func (d *Decoder) decodeRoom(v msdp.Value) Event {
	if v.Kind() != msdp.KindTable {
		return d.skip(varRoom, fmt.Sprintf("want table, got %s", v.Kind()))
	}

	id := v.FieldString("VNUM", "")
	if id == "" {
		return d.skip(varRoom, "missing VNUM")
	}

	ev := RoomUpdated{
		ID:           id,
		Name:         v.FieldString("NAME", ""),
		Area:         v.FieldString("AREA", ""),
		TerrainToken: v.FieldString("TERRAIN", ""),
		Exits:        make(map[graph.Direction]string),
	}

	exits, ok := v.Field("EXITS")
	if ok && exits.Kind() == msdp.KindTable {
		for _, key := range exits.Keys() {
			dir, known := graph.ParseDirection(key)
			if !known {
				d.logger.Debug("skipping exit with unknown direction",
					zap.String("room", id),
					zap.String("direction", key),
				)
				continue
			}
			target := exits.FieldString(key, "")
			if target == "" {
				continue
			}
			ev.Exits[dir] = target
		}
	}
	return ev
}

func (d *Decoder) decodePosition(v msdp.Value) Event {
	if v.Kind() != msdp.KindTable {
		return d.skip(varPosition, fmt.Sprintf("want table, got %s", v.Kind()))
	}
	x, okX := v.Field("X")
	y, okY := v.Field("Y")
	if !okX || !okY {
		return d.skip(varPosition, "missing X or Y")
	}
	return PositionChanged{
		Area: v.FieldString("AREA", ""),
		X:    x.AsInt(0),
		Y:    y.AsInt(0),
	}
}

func (d *Decoder) decodeEnvironment(v msdp.Value) Event {
	switch v.AsString("") {
	case string(ModeRoom):
		return EnvironmentChanged{Mode: ModeRoom}
	case string(ModeWilderness):
		return EnvironmentChanged{Mode: ModeWilderness}
	default:
		return d.skip(varEnvironment, fmt.Sprintf("unknown mode %q", v.Str()))
	}
}

// skip logs a decode diagnostic and returns the matching event.
func (d *Decoder) skip(name, reason string) VariableIgnored {
	d.logger.Debug("decode skipped",
		zap.String("variable", name),
		zap.String("reason", reason),
	)
	return VariableIgnored{Name: name, Reason: reason}
}
