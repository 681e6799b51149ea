package engine

import (
	"github.com/mudtools/msdpmap/internal/mapper/event"
	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/mapper/speedwalk"
)

// Notification is one externally visible map change. Implementations
// form a closed set: RoomAdded, ExitAdded, PositionUpdated,
// SpeedwalkProgress, SpeedwalkFinished.
type Notification interface {
	mapNotification()
}

// RoomAdded signals a room newly created in the graph.
type RoomAdded struct {
	ID string
}

// ExitAdded signals a new or re-targeted exit edge.
type ExitAdded struct {
	From      string
	Direction graph.Direction
	To        string
}

// PositionUpdated signals that the player's current position changed.
// RoomID is set in room mode; Area/X/Y in wilderness mode.
type PositionUpdated struct {
	Mode   event.Mode
	RoomID string
	Area   string
	X, Y   int
}

// SpeedwalkProgress signals one confirmed hop of the active plan.
type SpeedwalkProgress struct {
	Step, Total int
}

// SpeedwalkFinished signals the end of a plan, successful or not.
type SpeedwalkFinished struct {
	Outcome        speedwalk.Outcome
	StepsConfirmed int
	// ActualRoom is where the player ended up, for deviation outcomes.
	ActualRoom string
}

func (RoomAdded) mapNotification()         {}
func (ExitAdded) mapNotification()         {}
func (PositionUpdated) mapNotification()   {}
func (SpeedwalkProgress) mapNotification() {}
func (SpeedwalkFinished) mapNotification() {}
