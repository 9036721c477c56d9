package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mrdg/dbsynth/audio"
	"github.com/mrdg/dbsynth/dub"
	"github.com/mrdg/dbsynth/midi"
	"github.com/mrdg/dbsynth/screen"
)

type command struct {
	name  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"set", setCommand, 2},
		{"get", getCommand, 1},
		{"params", paramsCommand, 0},
		{"note", noteCommand, -1},
		{"off", offCommand, 1},
		{"cc", ccCommand, 2},
		{"send", sendCommand, -1},
		{"panic", panicCommand, 0},
		{"preset", presetCommand, 1},
		{"presets", presetsCommand, 0},
		{"loop", loopCommand, 3},
		{"unloop", unloopCommand, 1},
		{"bpm", bpmCommand, 1},
		{"screen", screenCommand, 0},
		{"ports", portsCommand, 0},
		{"save", saveCommand, 0},
		{"help", helpCommand, 0},
	}
}

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var key string
	if err := readArgs(args[:1], &key); err != nil {
		return nil, err
	}
	switch v := args[1].(type) {
	case dub.Number:
		return nil, env.props.Set(key, float64(v))
	case dub.String:
		return nil, env.props.Set(key, string(v))
	case dub.Identifier:
		return nil, env.props.Set(key, string(v))
	default:
		return nil, fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (dub.Node, error) {
	var key string
	if err := readArgs(args, &key); err != nil {
		return nil, err
	}
	v, err := env.props.Get(key)
	if err != nil {
		return nil, err
	}
	if desc, err := env.instrument.Synth().Describe(key); err == nil {
		return dub.String(fmt.Sprintf("%v (%s)", v, desc)), nil
	}
	switch v := v.(type) {
	case int:
		return dub.Number(v), nil
	case float64:
		return dub.Number(v), nil
	case map[string]*audio.Clip:
		return dub.String(strings.Join(clipNames(v), " ")), nil
	}
	return dub.String(fmt.Sprint(v)), nil
}

func paramsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, key := range audio.ParamKeys() {
		v, err := env.props.Get(key)
		if err != nil {
			return nil, err
		}
		desc, err := env.instrument.Synth().Describe(key)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%-14s %4v  %s", key, v, desc))
	}
	return dub.String(strings.Join(lines, "\n")), nil
}

func noteCommand(env *env, args []dub.Node) (dub.Node, error) {
	key, velocity := 0, audio.DefaultVelocity
	var err error
	switch len(args) {
	case 1:
		err = readArgs(args, &key)
	case 2:
		err = readArgs(args, &key, &velocity)
	default:
		err = errors.New("want a key and an optional velocity")
	}
	if err != nil {
		return nil, err
	}
	if err := checkData(key, velocity); err != nil {
		return nil, err
	}
	env.send(midi.NoteOnBytes(env.channel(), uint8(key), uint8(velocity))...)
	return nil, nil
}

func offCommand(env *env, args []dub.Node) (dub.Node, error) {
	var key int
	if err := readArgs(args, &key); err != nil {
		return nil, err
	}
	if err := checkData(key); err != nil {
		return nil, err
	}
	env.send(midi.NoteOffBytes(env.channel(), uint8(key))...)
	return nil, nil
}

func ccCommand(env *env, args []dub.Node) (dub.Node, error) {
	var controller, value int
	if err := readArgs(args, &controller, &value); err != nil {
		return nil, err
	}
	if err := checkData(controller, value); err != nil {
		return nil, err
	}
	env.send(midi.ControlChangeBytes(env.channel(), uint8(controller), uint8(value))...)
	return nil, nil
}

// sendCommand pushes raw bytes to the synth's MIDI input.
func sendCommand(env *env, args []dub.Node) (dub.Node, error) {
	bs := make([]byte, 0, len(args))
	for _, arg := range args {
		n, ok := arg.(dub.Number)
		if !ok || n < 0 || n > 0xff || n != dub.Number(int(n)) {
			return nil, fmt.Errorf("not a byte: %v", arg)
		}
		bs = append(bs, byte(n))
	}
	env.send(bs...)
	return nil, nil
}

func panicCommand(env *env, args []dub.Node) (dub.Node, error) {
	env.send(midi.ControlChangeBytes(env.channel(), midi.AllSoundOff, 0)...)
	return nil, nil
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	if err := audio.LoadPreset(name, env.props); err != nil {
		env.notify(screen.Error)
		return nil, err
	}
	env.notify(screen.PresetUpdated)
	return nil, nil
}

func presetsCommand(env *env, args []dub.Node) (dub.Node, error) {
	return dub.String(strings.Join(audio.Presets(), " ")), nil
}

func loopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	var length float64
	var pattern []dub.Node
	if err := readArgs(args, &name, &length, &pattern); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("loop length must be positive: %v", length)
	}
	clip := audio.NewClip(length, env.instrument)
	if err := evalPattern(pattern, clip, length, new(float64)); err != nil {
		return nil, err
	}
	if clip.NumNotes() == 0 {
		return nil, fmt.Errorf("loop %s has no notes", name)
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) error {
		clips[name] = clip
		return nil
	})
}

func unloopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) error {
		if _, ok := clips[name]; !ok {
			return fmt.Errorf("no such loop: %s", name)
		}
		delete(clips, name)
		return nil
	})
}

// updateClips replaces the sequencer's clips with a modified copy, so the
// map being played is never changed in place.
func (e *env) updateClips(update func(map[string]*audio.Clip) error) error {
	v, err := e.props.Get(audio.PropClips)
	if err != nil {
		return err
	}
	old := v.(map[string]*audio.Clip)
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		clips[k] = v
	}
	if err := update(clips); err != nil {
		return err
	}
	return e.props.Set(audio.PropClips, clips)
}

func clipNames(clips map[string]*audio.Clip) []string {
	var names []string
	for name := range clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bpmCommand(env *env, args []dub.Node) (dub.Node, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return nil, err
	}
	return nil, env.props.Set(audio.PropBPM, bpm)
}

func screenCommand(env *env, args []dub.Node) (dub.Node, error) {
	env.mu.Lock()
	defer env.mu.Unlock()
	renderScreen(env.screen, env.out)
	return nil, nil
}

func portsCommand(env *env, args []dub.Node) (dub.Node, error) {
	names, err := midi.Inputs()
	if err != nil {
		return nil, err
	}
	var ports dub.Array
	for _, name := range names {
		ports = append(ports, dub.String(name))
	}
	return ports, nil
}

func saveCommand(env *env, args []dub.Node) (dub.Node, error) {
	if env.store == nil {
		return nil, errors.New("no settings file")
	}
	return nil, env.flush()
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	names := make([]string, len(commands))
	for i, cmd := range commands {
		names[i] = cmd.name
	}
	return dub.String(strings.Join(names, " ")), nil
}

// evalPattern adds the notes of pattern to clip. Every item takes an equal
// share of divLength: a number is a pitch (0 is a rest), a tuple is a pitch
// and a velocity, and a nested array subdivides its share.
func evalPattern(pattern dub.Array, clip *audio.Clip, divLength float64, pos *float64) error {
	noteLength := divLength / float64(len(pattern))
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Number:
			if v != 0 {
				clip.AddNote(*pos, int(v), audio.DefaultVelocity, noteLength)
			}
			*pos += noteLength
		case dub.Tuple:
			var pitch, velocity int
			if err := readArgs(v, &pitch, &velocity); err != nil {
				return fmt.Errorf("invalid %v in pattern %v: %w", v, pattern, err)
			}
			clip.AddNote(*pos, pitch, velocity, noteLength)
			*pos += noteLength
		case dub.Array:
			if err := evalPattern(v, clip, noteLength, pos); err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid %q in pattern %v", v, pattern)
		}
	}
	return nil
}

func checkData(values ...int) error {
	for _, v := range values {
		if v < 0 || v > 0x7f {
			return fmt.Errorf("value out of range 0 - 127: %v", v)
		}
	}
	return nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = float64(n)
		case *int:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = int(n)
		case *[]dub.Node:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
