// Package speedwalk computes multi-step movement paths over the room
// graph and executes them one command at a time against the live game
// session, confirming every hop before issuing the next.
package speedwalk

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mudtools/msdpmap/internal/mapper/graph"
)

// ErrNoPath reports that the planner could not connect the two rooms.
// It wraps graph.ErrNoPath.
var ErrNoPath = graph.ErrNoPath

// ErrIncompleteGraph reports that a shortest path exists over recorded
// edges but some hop has no usable direction, typically because the edge
// was recorded only in the reverse direction.
var ErrIncompleteGraph = errors.New("incomplete graph")

// Step is one planned hop: the command to issue and the room the server
// must confirm afterwards.
type Step struct {
	Direction    graph.Direction
	ExpectedRoom string
}

// Plan is an ordered command sequence from one room to another. A plan
// is immutable once built; execution progress lives in the Executor.
type Plan struct {
	// ID distinguishes plans in logs and notifications.
	ID uuid.UUID
	// From and To are the endpoints the plan was computed for.
	From, To string
	// Steps are the hops in order.
	Steps []Step
}

// Len returns the number of hops.
func (p *Plan) Len() int { return len(p.Steps) }

// Planner builds plans against a room graph.
type Planner struct {
	graph *graph.Graph
}

// NewPlanner creates a Planner reading from g.
//
// Precondition: g must not be nil.
func NewPlanner(g *graph.Graph) *Planner {
	if g == nil {
		panic("speedwalk.NewPlanner: graph must not be nil")
	}
	return &Planner{graph: g}
}

// Plan computes a shortest path from fromID to toID and converts it to
// direction commands. For each hop the first direction (in
// graph.AllDirections order) whose exit leads to the next room is used,
// so equal plans reproduce across runs.
//
// Postcondition: Returns a plan with zero steps when fromID == toID.
// Unreachable targets return ErrNoPath; a hop with no usable direction
// returns ErrIncompleteGraph. No partial plan is ever returned.
func (p *Planner) Plan(fromID, toID string) (*Plan, error) {
	ids, err := p.graph.ShortestPath(fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("speedwalk: planning %s -> %s: %w", fromID, toID, err)
	}

	steps := make([]Step, 0, len(ids))
	current := fromID
	for _, next := range ids {
		room, ok := p.graph.GetRoom(current)
		if !ok {
			return nil, fmt.Errorf("speedwalk: path passes through unknown room %q: %w", current, ErrIncompleteGraph)
		}
		dir, ok := room.ExitTo(next)
		if !ok {
			return nil, fmt.Errorf("speedwalk: no direction from %q to %q: %w", current, next, ErrIncompleteGraph)
		}
		steps = append(steps, Step{Direction: dir, ExpectedRoom: next})
		current = next
	}

	return &Plan{
		ID:    uuid.New(),
		From:  fromID,
		To:    toID,
		Steps: steps,
	}, nil
}
