package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mrdg/dbsynth/audio"
	"github.com/mrdg/dbsynth/midi"
	"github.com/mrdg/dbsynth/screen"
	lua "github.com/yuin/gopher-lua"
)

// script runs Lua performances against the synth. Scripts see these globals:
//
//	note_on(key [, velocity])   note_off(key)   cc(controller, value)
//	set(param, value)           get(param)      preset(name)
//	bpm(n)                      sleep(ms)       run(command)
type script struct {
	env   *env
	sleep func(ctx context.Context, d time.Duration) error
}

func newScript(e *env) *script {
	return &script{env: e, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *script) state(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	for name, fn := range map[string]lua.LGFunction{
		"note_on":  s.noteOn,
		"note_off": s.noteOff,
		"cc":       s.cc,
		"set":      s.set,
		"get":      s.get,
		"preset":   s.preset,
		"bpm":      s.bpm,
		"sleep":    s.sleepMillis,
		"run":      s.run,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

// RunFile runs the script at path until it returns or ctx is done.
func (s *script) RunFile(ctx context.Context, path string) error {
	L := s.state(ctx)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("lua %s: %w", path, err)
	}
	return nil
}

func (s *script) RunString(ctx context.Context, source string) error {
	L := s.state(ctx)
	defer L.Close()
	return L.DoString(source)
}

func data7(L *lua.LState, n int, v int) uint8 {
	if v < 0 || v > 0x7f {
		L.ArgError(n, fmt.Sprintf("value out of range 0 - 127: %v", v))
	}
	return uint8(v)
}

func (s *script) noteOn(L *lua.LState) int {
	key := data7(L, 1, L.CheckInt(1))
	velocity := data7(L, 2, L.OptInt(2, audio.DefaultVelocity))
	s.env.send(midi.NoteOnBytes(s.env.channel(), key, velocity)...)
	return 0
}

func (s *script) noteOff(L *lua.LState) int {
	key := data7(L, 1, L.CheckInt(1))
	s.env.send(midi.NoteOffBytes(s.env.channel(), key)...)
	return 0
}

func (s *script) cc(L *lua.LState) int {
	controller := data7(L, 1, L.CheckInt(1))
	value := data7(L, 2, L.CheckInt(2))
	s.env.send(midi.ControlChangeBytes(s.env.channel(), controller, value)...)
	return 0
}

func (s *script) set(L *lua.LState) int {
	key := L.CheckString(1)
	var err error
	switch v := L.CheckAny(2).(type) {
	case lua.LNumber:
		err = s.env.props.Set(key, float64(v))
	case lua.LString:
		err = s.env.props.Set(key, string(v))
	default:
		L.ArgError(2, "number or string expected")
	}
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (s *script) get(L *lua.LState) int {
	v, err := s.env.props.Get(L.CheckString(1))
	if err != nil {
		L.RaiseError("%v", err)
	}
	switch v := v.(type) {
	case int:
		L.Push(lua.LNumber(v))
	case float64:
		L.Push(lua.LNumber(v))
	default:
		L.Push(lua.LString(fmt.Sprint(v)))
	}
	return 1
}

func (s *script) preset(L *lua.LState) int {
	if err := audio.LoadPreset(L.CheckString(1), s.env.props); err != nil {
		L.RaiseError("%v", err)
	}
	s.env.notify(screen.PresetUpdated)
	return 0
}

func (s *script) bpm(L *lua.LState) int {
	if err := s.env.props.Set(audio.PropBPM, float64(L.CheckNumber(1))); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (s *script) sleepMillis(L *lua.LState) int {
	d := time.Duration(float64(L.CheckNumber(1)) * float64(time.Millisecond))
	if err := s.sleep(L.Context(), d); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// run evaluates a prompt command, returning its result as a string.
func (s *script) run(L *lua.LState) int {
	result, err := s.env.eval(L.CheckString(1))
	if err != nil {
		L.RaiseError("%v", err)
	}
	if result == nil {
		return 0
	}
	L.Push(lua.LString(fmt.Sprint(result)))
	return 1
}
