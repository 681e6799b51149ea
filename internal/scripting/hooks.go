// Package scripting runs user Lua hooks against map events. Scripts
// declare plain global functions (map_room_added, map_exit_added,
// map_position, speedwalk_progress, speedwalk_finished) and the hook
// dispatcher calls whichever ones are defined. Hook failures are
// logged and never propagate into map tracking.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/mudtools/msdpmap/internal/mapper/engine"
	"github.com/mudtools/msdpmap/internal/mapper/event"
)

// Hook function names scripts may define.
const (
	fnRoomAdded         = "map_room_added"
	fnExitAdded         = "map_exit_added"
	fnPosition          = "map_position"
	fnSpeedwalkProgress = "speedwalk_progress"
	fnSpeedwalkFinished = "speedwalk_finished"
)

// Hooks owns one sandboxed Lua state and dispatches map notifications
// into it. All methods must be called from a single goroutine; the
// state is not reentrant.
type Hooks struct {
	mu     sync.Mutex
	state  *lua.LState
	logger *zap.Logger
}

// NewHooks creates an empty hook dispatcher with a sandboxed state:
// only base, table, string, and math stdlib loaded, and the
// file/loader globals stripped.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Hooks; the caller must Close it.
func NewHooks(logger *zap.Logger) *Hooks {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &Hooks{state: L, logger: logger}
}

// LoadDir executes every *.lua file in dir in lexicographic order so
// scripts can rely on a stable load sequence.
//
// Precondition: dir must be a readable directory.
func (h *Hooks) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, f := range files {
		if err := h.state.DoFile(f); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", f, err)
		}
		h.logger.Debug("loaded hook script", zap.String("file", f))
	}
	return nil
}

// DoString executes a script fragment directly. Intended for tests and
// interactive experimentation.
func (h *Hooks) DoString(src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.state.DoString(src); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	return nil
}

// Dispatch routes one map notification to the matching hook function,
// if the loaded scripts define it. Errors are logged and swallowed.
func (h *Hooks) Dispatch(n engine.Notification) {
	switch n := n.(type) {
	case engine.RoomAdded:
		h.call(fnRoomAdded, lua.LString(n.ID))
	case engine.ExitAdded:
		h.call(fnExitAdded, lua.LString(n.From), lua.LString(string(n.Direction)), lua.LString(n.To))
	case engine.PositionUpdated:
		if n.Mode == event.ModeWilderness {
			h.call(fnPosition, lua.LString(string(n.Mode)), lua.LString(n.Area), lua.LNumber(n.X), lua.LNumber(n.Y))
			return
		}
		h.call(fnPosition, lua.LString(string(n.Mode)), lua.LString(n.RoomID))
	case engine.SpeedwalkProgress:
		h.call(fnSpeedwalkProgress, lua.LNumber(n.Step), lua.LNumber(n.Total))
	case engine.SpeedwalkFinished:
		h.call(fnSpeedwalkFinished, lua.LString(string(n.Outcome)), lua.LNumber(n.StepsConfirmed))
	}
}

func (h *Hooks) call(name string, args ...lua.LValue) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn := h.state.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	err := h.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...)
	if err != nil {
		h.logger.Warn("hook failed",
			zap.String("hook", name),
			zap.Error(err),
		)
	}
}

// Close releases the Lua state.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}
