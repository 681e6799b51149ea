package speedwalk

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the executor's position in its lifecycle.
type State int

const (
	// Idle means no plan is loaded.
	Idle State = iota
	// AwaitingArrival means a command was issued and the executor is
	// waiting for the server to confirm the move.
	AwaitingArrival
	// Completed means the last step was confirmed.
	Completed
	// Aborted means execution stopped early; see the result's Outcome.
	Aborted
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingArrival:
		return "awaiting_arrival"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// Outcome classifies how a plan ended.
type Outcome string

const (
	// OutcomeCompleted: every step confirmed in order.
	OutcomeCompleted Outcome = "completed"
	// OutcomeDeviation: the player arrived somewhere not on the plan.
	OutcomeDeviation Outcome = "unexpected_position"
	// OutcomeTimeout: no confirmation arrived within the bound.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeCancelled: the caller cancelled or replaced the plan.
	OutcomeCancelled Outcome = "cancelled"
)

// Result describes a finished plan.
type Result struct {
	// Plan is the plan that ran.
	Plan *Plan
	// Outcome classifies the ending.
	Outcome Outcome
	// StepsConfirmed counts hops the server confirmed.
	StepsConfirmed int
	// ActualRoom is where the player turned out to be, for deviation
	// outcomes. Empty otherwise.
	ActualRoom string
}

// Sender issues movement commands to the external game session.
type Sender interface {
	// SendCommand submits one plain direction token (e.g. "north").
	SendCommand(cmd string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(cmd string) error

// SendCommand calls the underlying function.
func (f SenderFunc) SendCommand(cmd string) error { return f(cmd) }

// Executor walks a plan against a latency-bearing, untrusted session.
// It issues one command at a time, waits for a confirmed arrival within
// a bounded interval, and aborts on mismatch or silence. At most one
// timeout timer is outstanding; every transition cancels and replaces
// it, never stacks a second one.
//
// Arrive is called from the mapper's event loop; the timeout fires from
// a timer goroutine. The mutex serializes the two.
type Executor struct {
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
	onDone  func(Result)
	onStep  func(step, total int)

	mu     sync.Mutex
	state  State
	plan   *Plan
	cursor int
	gen    uint64 // invalidates stale timer fires
	timer  *time.Timer
}

// Config carries the executor's tunables and callbacks.
type Config struct {
	// Sender issues movement commands. Required.
	Sender Sender
	// Timeout bounds the wait for each arrival confirmation. Required,
	// positive.
	Timeout time.Duration
	// Logger is required.
	Logger *zap.Logger
	// OnFinished is invoked once per plan with the final result. May be
	// nil. Called without the executor lock held.
	OnFinished func(Result)
	// OnProgress is invoked after each confirmed step with (step, total).
	// May be nil. Called without the executor lock held.
	OnProgress func(step, total int)
}

// NewExecutor creates an idle Executor.
//
// Precondition: cfg.Sender and cfg.Logger must be non-nil; cfg.Timeout
// must be positive.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("speedwalk: sender must not be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("speedwalk: logger must not be nil")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("speedwalk: timeout must be positive, got %v", cfg.Timeout)
	}
	return &Executor{
		sender:  cfg.Sender,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		onDone:  cfg.OnFinished,
		onStep:  cfg.OnProgress,
		state:   Idle,
	}, nil
}

// State returns the current lifecycle state.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Active reports whether a plan is currently awaiting confirmation.
func (e *Executor) Active() bool {
	return e.State() == AwaitingArrival
}

// Start begins executing a plan. If a plan is already active its timer
// is cancelled first and it finishes with OutcomeCancelled before the
// new plan issues its first command. A zero-step plan completes
// immediately without issuing anything.
//
// Precondition: plan must not be nil.
func (e *Executor) Start(plan *Plan) error {
	if plan == nil {
		return fmt.Errorf("speedwalk: plan must not be nil")
	}

	e.mu.Lock()
	var cancelled *Result
	if e.state == AwaitingArrival {
		cancelled = e.finishLocked(OutcomeCancelled, "")
	}
	e.plan = plan
	e.cursor = 0

	if plan.Len() == 0 {
		done := e.finishLocked(OutcomeCompleted, "")
		e.mu.Unlock()
		e.notify(cancelled)
		e.notify(done)
		return nil
	}

	e.state = AwaitingArrival
	first := plan.Steps[0]
	e.armTimerLocked()
	e.mu.Unlock()

	e.notify(cancelled)

	e.logger.Debug("speedwalk started",
		zap.String("plan", plan.ID.String()),
		zap.String("from", plan.From),
		zap.String("to", plan.To),
		zap.Int("steps", plan.Len()),
	)
	return e.issue(first)
}

// Cancel stops the active plan, if any, with OutcomeCancelled.
func (e *Executor) Cancel() {
	e.mu.Lock()
	var done *Result
	if e.state == AwaitingArrival {
		done = e.finishLocked(OutcomeCancelled, "")
	}
	e.mu.Unlock()
	e.notify(done)
}

// Arrive feeds a confirmed post-move room id into the executor. Calls
// outside AwaitingArrival are ignored: the engine forwards every
// confirmed move and most of them belong to manual walking.
func (e *Executor) Arrive(roomID string) {
	e.mu.Lock()
	if e.state != AwaitingArrival {
		e.mu.Unlock()
		return
	}

	expected := e.plan.Steps[e.cursor].ExpectedRoom
	if roomID != expected {
		// Forced move, scripted exit, or stale map data. Surface it and
		// stop; recovery is a re-plan from wherever the player is now.
		done := e.finishLocked(OutcomeDeviation, roomID)
		e.mu.Unlock()
		e.notify(done)
		return
	}

	e.cursor++
	confirmed := e.cursor
	total := e.plan.Len()

	if e.cursor == total {
		done := e.finishLocked(OutcomeCompleted, "")
		e.mu.Unlock()
		e.progress(confirmed, total)
		e.notify(done)
		return
	}

	next := e.plan.Steps[e.cursor]
	e.armTimerLocked()
	e.mu.Unlock()

	e.progress(confirmed, total)
	_ = e.issue(next)
}

// armTimerLocked cancels any outstanding timer and schedules a fresh
// one. The generation counter keeps a timer that already fired from
// acting on a newer plan state.
//
// Precondition: e.mu held.
func (e *Executor) armTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(e.timeout, func() { e.expire(gen) })
}

// expire handles a timeout fire for the given generation.
func (e *Executor) expire(gen uint64) {
	e.mu.Lock()
	if e.state != AwaitingArrival || gen != e.gen {
		e.mu.Unlock()
		return
	}
	done := e.finishLocked(OutcomeTimeout, "")
	e.mu.Unlock()
	e.notify(done)
}

// finishLocked transitions to the terminal state for the current plan
// and returns the result to deliver after unlocking.
//
// Precondition: e.mu held; e.plan non-nil.
func (e *Executor) finishLocked(outcome Outcome, actualRoom string) *Result {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	if outcome == OutcomeCompleted {
		e.state = Completed
	} else {
		e.state = Aborted
	}
	res := &Result{
		Plan:           e.plan,
		Outcome:        outcome,
		StepsConfirmed: e.cursor,
		ActualRoom:     actualRoom,
	}
	return res
}

func (e *Executor) issue(step Step) error {
	if err := e.sender.SendCommand(string(step.Direction)); err != nil {
		e.logger.Warn("speedwalk command send failed",
			zap.String("direction", string(step.Direction)),
			zap.Error(err),
		)
		return fmt.Errorf("speedwalk: sending %q: %w", step.Direction, err)
	}
	return nil
}

func (e *Executor) notify(res *Result) {
	if res == nil {
		return
	}
	e.logger.Debug("speedwalk finished",
		zap.String("plan", res.Plan.ID.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("steps_confirmed", res.StepsConfirmed),
	)
	if e.onDone != nil {
		e.onDone(*res)
	}
}

func (e *Executor) progress(step, total int) {
	if e.onStep != nil {
		e.onStep(step, total)
	}
}
