// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
)

// CodeScriptFailed marks a Lua load or handler error.
const CodeScriptFailed = "SCRIPT_FAILED"

// Script is a loaded Lua listener. The script defines on_event(event) and
// may set a global events table of event type patterns (default "*").
// Its state persists across events; calls are serialized.
type Script struct {
	name   string
	logger *slog.Logger
	out    io.Writer

	mu     sync.Mutex
	state  *lua.LState
	events []overlay.EventType
	closed bool
}

// Option configures a Script.
type Option func(*Script)

// WithLogger sets the logger used by overlay.log and for handler errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Script) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput sets where overlay.print and string results of on_event go.
func WithOutput(w io.Writer) Option {
	return func(s *Script) {
		if w != nil {
			s.out = w
		}
	}
}

// Load reads and runs the script at path.
func Load(ctx context.Context, path string, opts ...Option) (*Script, error) {
	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("script").Code(CodeScriptFailed).With("path", path).Hint("failed to read script").Wrap(err)
	}
	return LoadString(ctx, filepath.Base(path), string(code), opts...)
}

// LoadString runs code as a script called name.
func LoadString(ctx context.Context, name, code string, opts ...Option) (*Script, error) {
	s := &Script{
		name:   name,
		logger: slog.Default(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("script", name)

	L, err := NewStateFactory().NewState(ctx)
	if err != nil {
		return nil, oops.In("script").Code(CodeScriptFailed).With("script", name).Wrap(err)
	}
	s.registerHostFunctions(L)

	if err := L.DoString(code); err != nil {
		L.Close()
		return nil, oops.In("script").Code(CodeScriptFailed).With("script", name).Hint("syntax error").Wrap(err)
	}
	if L.GetGlobal("on_event").Type() != lua.LTFunction {
		L.Close()
		return nil, oops.In("script").Code(CodeScriptFailed).With("script", name).Errorf("on_event is not defined")
	}

	events, err := readEvents(L)
	if err != nil {
		L.Close()
		return nil, oops.In("script").With("script", name).Wrap(err)
	}

	s.state = L
	s.events = events
	return s, nil
}

// readEvents expands the global events table, or every type when unset.
func readEvents(L *lua.LState) ([]overlay.EventType, error) {
	patterns := []string{"*"}
	switch v := L.GetGlobal("events").(type) {
	case *lua.LNilType:
	case lua.LString:
		patterns = []string{string(v)}
	case *lua.LTable:
		patterns = nil
		v.ForEach(func(_, item lua.LValue) {
			patterns = append(patterns, item.String())
		})
	default:
		return nil, oops.Code(CodeScriptFailed).Errorf("events must be a string or table, got %s", v.Type())
	}
	//nolint:wrapcheck // already an oops error
	return overlay.MatchEventTypes(patterns...)
}

func (s *Script) registerHostFunctions(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		s.logger.Info(L.CheckString(1))
		return 0
	}))
	L.SetField(mod, "print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.Get(i).String())
		}
		s.writeLine(strings.Join(parts, "\t"))
		return 0
	}))
	L.SetGlobal("overlay", mod)
}

func (s *Script) writeLine(line string) {
	//nolint:errcheck // best-effort output
	fmt.Fprintln(s.out, line)
}

// Name returns the script name.
func (s *Script) Name() string { return s.name }

// Events returns the event types the script listens to.
func (s *Script) Events() []overlay.EventType {
	return append([]overlay.EventType(nil), s.events...)
}

// Handle runs on_event for ev. The event table has type, raw (the JSON
// text), data (the decoded payload) and, for extended CombatData, combat.
func (s *Script) Handle(ev overlay.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return oops.In("script").Code(CodeScriptFailed).With("script", s.name).Errorf("script is closed")
	}

	L := s.state
	t := L.NewTable()
	L.SetField(t, "type", lua.LString(ev.Type))
	L.SetField(t, "raw", lua.LString(ev.Raw))
	L.SetField(t, "data", jsonToLValue(L, ev.Raw))
	if ev.Combat != nil {
		L.SetField(t, "combat", structToLValue(L, ev.Combat))
	}

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("on_event"),
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return oops.In("script").Code(CodeScriptFailed).With("script", s.name).With("type", ev.Type).Wrap(err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if str, ok := ret.(lua.LString); ok {
		s.writeLine(string(str))
	}
	return nil
}

// Listener adapts Handle to an overlay listener that logs failures.
func (s *Script) Listener() overlay.Listener {
	return func(ev overlay.Event) {
		if err := s.Handle(ev); err != nil {
			errutil.LogError(s.logger, "script handler failed", err)
		}
	}
}

// Attach registers the script on c for each of its event types.
func (s *Script) Attach(c *overlay.Client) []overlay.ListenerID {
	fn := s.Listener()
	ids := make([]overlay.ListenerID, 0, len(s.events))
	for _, t := range s.events {
		ids = append(ids, c.AddListener(t, fn))
	}
	return ids
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.state.Close()
}
