// Package engine orchestrates the automapper: it consumes decoded MSDP
// variables, keeps the room graph and position tracker consistent, runs
// speedwalks, and fans map-change notifications out to subscribers.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mudtools/msdpmap/internal/mapper/event"
	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/mapper/speedwalk"
	"github.com/mudtools/msdpmap/internal/mapper/terrain"
	"github.com/mudtools/msdpmap/internal/mapper/track"
	"github.com/mudtools/msdpmap/internal/msdp"
)

// Config carries the engine's collaborators and tunables.
type Config struct {
	// Logger is required.
	Logger *zap.Logger
	// Session issues movement commands to the game. Required.
	Session speedwalk.Sender
	// SpeedwalkTimeout bounds each hop's confirmation wait. Required,
	// positive.
	SpeedwalkTimeout time.Duration
	// InitialGraph seeds the engine with a previously persisted map.
	// Optional; nil starts with an empty graph.
	InitialGraph *graph.Graph
}

// Engine is the mapper orchestrator. Variable updates must be handled
// serially from a single goroutine; every other method is safe to call
// concurrently with that loop only where documented.
type Engine struct {
	logger     *zap.Logger
	decoder    *event.Decoder
	graph      *graph.Graph
	tracker    *track.Tracker
	classifier *terrain.Classifier
	planner    *speedwalk.Planner
	executor   *speedwalk.Executor

	// pendingDir attributes the next confirmed room change to the
	// movement command that caused it.
	pendingDir graph.Direction

	subMu sync.Mutex
	subs  map[chan<- Notification]struct{}
}

// New creates an Engine in the unknown environment, starting from the
// seed graph if one is provided.
//
// Postcondition: Returns a non-nil Engine or a non-nil error.
func New(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("engine: logger must not be nil")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("engine: session must not be nil")
	}

	g := cfg.InitialGraph
	if g == nil {
		g = graph.New()
	}

	e := &Engine{
		logger:     cfg.Logger,
		decoder:    event.NewDecoder(cfg.Logger),
		graph:      g,
		tracker:    track.New(),
		classifier: terrain.NewClassifier(cfg.Logger),
		subs:       make(map[chan<- Notification]struct{}),
	}
	e.planner = speedwalk.NewPlanner(e.graph)

	// Movement commands issued by the executor flow through the same
	// attribution path as manual movement.
	sender := speedwalk.SenderFunc(func(cmd string) error {
		e.NoteMovementCommand(cmd)
		return cfg.Session.SendCommand(cmd)
	})

	executor, err := speedwalk.NewExecutor(speedwalk.Config{
		Sender:  sender,
		Timeout: cfg.SpeedwalkTimeout,
		Logger:  cfg.Logger,
		OnFinished: func(r speedwalk.Result) {
			e.publish(SpeedwalkFinished{
				Outcome:        r.Outcome,
				StepsConfirmed: r.StepsConfirmed,
				ActualRoom:     r.ActualRoom,
			})
		},
		OnProgress: func(step, total int) {
			e.publish(SpeedwalkProgress{Step: step, Total: total})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.executor = executor
	return e, nil
}

// Subscribe registers ch to receive map-change notifications. If ch is
// full when a notification is published, that notification is dropped
// for ch (non-blocking fan-out).
//
// Precondition: ch must not be nil.
func (e *Engine) Subscribe(ch chan<- Notification) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.subs[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list. Once Unsubscribe
// returns, the engine will not send on ch again, even from timer
// goroutines, so the caller may safely close it.
func (e *Engine) Unsubscribe(ch chan<- Notification) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	delete(e.subs, ch)
}

// HandleVariable processes one raw protocol variable. It never fails
// outward: malformed payloads are logged and dropped, because a single
// bad update must never stop live map tracking.
func (e *Engine) HandleVariable(name string, v msdp.Value) {
	e.Apply(e.decoder.Decode(name, v))
}

// Apply processes one decoded event.
func (e *Engine) Apply(ev event.Event) {
	switch ev := ev.(type) {
	case event.RoomUpdated:
		e.applyRoom(ev)
	case event.PositionChanged:
		e.applyPosition(ev)
	case event.EnvironmentChanged:
		e.applyEnvironment(ev)
	case event.VariableIgnored:
		// Decoder already logged the diagnostic.
	default:
		e.logger.Warn("dropping unrecognized event", zap.Any("event", ev))
	}
}

// NoteMovementCommand records that a movement command was just sent to
// the game, so the next confirmed room change can be attributed to that
// direction. Non-direction tokens are ignored.
func (e *Engine) NoteMovementCommand(token string) {
	if d, ok := graph.ParseDirection(token); ok {
		e.pendingDir = d
	}
}

// SpeedwalkTo plans a path from the player's current room to target and
// starts executing it. Any active speedwalk is cancelled first.
//
// Postcondition: Returns speedwalk.ErrNoPath or
// speedwalk.ErrIncompleteGraph as typed failures; no commands are
// issued for a failed plan.
func (e *Engine) SpeedwalkTo(target string) error {
	pos, ok := e.tracker.CurrentRoom()
	if !ok {
		return fmt.Errorf("engine: current room unknown, cannot speedwalk")
	}
	plan, err := e.planner.Plan(pos.RoomID, target)
	if err != nil {
		return err
	}
	return e.executor.Start(plan)
}

// CancelSpeedwalk stops the active speedwalk, if any.
func (e *Engine) CancelSpeedwalk() {
	e.executor.Cancel()
}

// SpeedwalkActive reports whether a plan is awaiting confirmation.
func (e *Engine) SpeedwalkActive() bool {
	return e.executor.Active()
}

// Mode returns the current environment mode.
func (e *Engine) Mode() event.Mode {
	return e.tracker.Mode()
}

// CurrentRoomID returns the player's current room id in room mode.
func (e *Engine) CurrentRoomID() (string, bool) {
	pos, ok := e.tracker.CurrentRoom()
	return pos.RoomID, ok
}

// Graph exposes the room graph for persistence and export. Callers must
// only use it from the engine's event goroutine.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

func (e *Engine) applyRoom(ev event.RoomUpdated) {
	created, err := e.graph.UpsertRoom(ev.ID, ev.Name, ev.Area, e.classifier.Classify(ev.TerrainToken))
	if err != nil {
		e.logger.Warn("room update dropped", zap.Error(err))
		return
	}
	if created {
		e.publish(RoomAdded{ID: ev.ID})
	}

	// Record the reported exits as unconfirmed edges. Targets become
	// placeholder rooms so paths can route toward rooms seen only
	// through an exit listing.
	for _, d := range graph.AllDirections {
		to, ok := ev.Exits[d]
		if !ok {
			continue
		}
		if _, known := e.graph.GetRoom(to); !known {
			if _, err := e.graph.UpsertRoom(to, "", "", terrain.Unknown); err == nil {
				e.publish(RoomAdded{ID: to})
			}
		}
		changed, err := e.graph.SetExit(ev.ID, d, to, false)
		switch {
		case errors.Is(err, graph.ErrExitConflict):
			e.logger.Warn("exit conflict, keeping recorded target",
				zap.String("room", ev.ID),
				zap.String("direction", string(d)),
				zap.String("rejected", to),
			)
		case err != nil:
			e.logger.Warn("exit update dropped", zap.Error(err))
		case changed:
			e.publish(ExitAdded{From: ev.ID, Direction: d, To: to})
		}
	}

	prev, hadPrev := e.tracker.CurrentRoom()
	if !e.tracker.ObserveRoom(ev.ID) {
		return
	}

	// Confirmed transition: the player actually moved prev -> ev.ID.
	if hadPrev {
		e.confirmTransition(prev.RoomID, ev.ID)
	}
	e.pendingDir = ""
	e.publish(PositionUpdated{Mode: event.ModeRoom, RoomID: ev.ID})
	e.executor.Arrive(ev.ID)
}

// confirmTransition records authoritative exit evidence for an observed
// move. The direction comes from the last issued movement command, or
// failing that from the recorded exits of the previous room.
func (e *Engine) confirmTransition(fromID, toID string) {
	dir := e.pendingDir
	if dir == "" {
		from, ok := e.graph.GetRoom(fromID)
		if !ok {
			return
		}
		if dir, ok = from.ExitTo(toID); !ok {
			e.logger.Debug("move with unknown direction",
				zap.String("from", fromID),
				zap.String("to", toID),
			)
			return
		}
	}

	changed, err := e.graph.SetExit(fromID, dir, toID, true)
	if err != nil {
		e.logger.Warn("confirmed exit rejected", zap.Error(err))
		return
	}
	e.tracker.SetFacing(dir)
	if changed {
		e.publish(ExitAdded{From: fromID, Direction: dir, To: toID})
	}
}

func (e *Engine) applyPosition(ev event.PositionChanged) {
	if !e.tracker.ObservePosition(ev.Area, ev.X, ev.Y) {
		return
	}
	e.publish(PositionUpdated{
		Mode: event.ModeWilderness,
		Area: ev.Area,
		X:    ev.X,
		Y:    ev.Y,
	})
}

func (e *Engine) applyEnvironment(ev event.EnvironmentChanged) {
	if e.tracker.Mode() == ev.Mode {
		return
	}
	e.logger.Info("environment changed",
		zap.String("from", string(e.tracker.Mode())),
		zap.String("to", string(ev.Mode)),
	)
	e.tracker.SetMode(ev.Mode)

	// Resuming room mode re-announces the parked position so consumers
	// can re-center immediately.
	if ev.Mode == event.ModeRoom {
		if pos, ok := e.tracker.CurrentRoom(); ok {
			e.publish(PositionUpdated{Mode: event.ModeRoom, RoomID: pos.RoomID})
		}
	}
}

// publish fans a notification out to all subscribers without blocking.
// The sends happen under subMu: they cannot block, and holding the lock
// guarantees no send targets a channel once Unsubscribe has returned.
func (e *Engine) publish(n Notification) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
