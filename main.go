package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/mrdg/dbsynth/audio"
	"github.com/mrdg/dbsynth/midi"
	"github.com/mrdg/dbsynth/screen"
	"github.com/mrdg/dbsynth/settings"
	"golang.org/x/term"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	var (
		backend      = flag.String("backend", "portaudio", "audio output: portaudio, oto or wav")
		out          = flag.String("out", "dbsynth.wav", "output file for the wav backend")
		seconds      = flag.Float64("seconds", 10, "seconds of audio rendered by the wav backend")
		settingsFile = flag.String("settings", "", "file holding the saved settings")
		ccmap        = flag.String("ccmap", "", "controller map file")
		midiIn       = flag.String("midi-in", "", "MIDI input port, matched by name")
		midiMode     = flag.String("midi-mode", "interrupt", "MIDI input handling: interrupt or polled")
		channel      = flag.Int("channel", 0, "MIDI channel 1-16; 0 keeps the saved channel")
		matchNoteOff = flag.Bool("match-note-off", false, "only release on a note off for the sounding note")
		preset       = flag.String("preset", "", "preset to load at startup")
		run          = flag.String("run", "", "file with commands to run at startup")
		luaFile      = flag.String("lua", "", "lua script to play")
		keys         = flag.Bool("keys", false, "play from the computer keyboard")
		debug        = flag.Bool("debug", false, "log every MIDI message")
	)
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("dbsynth: ")

	mode, err := audio.ParseMode(*midiMode)
	if err != nil {
		log.Fatal(err)
	}
	controllers := audio.DefaultControllers
	if *ccmap != "" {
		controllers, err = loadControllers(*ccmap)
		if err != nil {
			log.Fatal(err)
		}
	}
	if *channel < 0 || *channel > 16 {
		log.Fatalf("invalid midi channel: %v", *channel)
	}

	queue := midi.NewQueue(1024)
	props := audio.NewProps()
	env := newEnv(props, queue, os.Stdout)

	cfg := audio.Config{
		Mode:         mode,
		Controllers:  controllers,
		MatchNoteOff: *matchNoteOff,
		OnChange:     env.onChange,
	}
	if *debug {
		cfg.Debug = log.Printf
	}
	synth := audio.NewSynth(props, queue, cfg)
	env.instrument = audio.NewInstrument(props, synth)
	seq := audio.NewSequencer(props)

	for _, key := range audio.ParamKeys() {
		v, _ := props.Get(key)
		env.screen.Apply(key, v.(int))
	}

	if *settingsFile != "" {
		store, err := openSettings(*settingsFile, props)
		if errors.Is(err, settings.ErrVersion) {
			log.Print(err)
			env.screen.Notify(screen.Error, time.Now())
		} else if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
		env.store = store
	}
	if *channel > 0 {
		if err := props.Set(audio.KeyChannel, *channel-1); err != nil {
			log.Fatal(err)
		}
	}
	if *preset != "" {
		if err := audio.LoadPreset(*preset, props); err != nil {
			log.Fatal(err)
		}
		env.screen.Notify(screen.PresetUpdated, time.Now())
	}

	if *midiIn != "" {
		closeInput, err := midi.OpenInput(*midiIn, queue)
		if err != nil {
			log.Fatal(err)
		}
		defer midi.Close()
		defer closeInput()
	}

	sink, err := audio.NewSink(*backend, *out, *seconds)
	if err != nil {
		log.Fatal(err)
	}
	sink.AddTicker(seq)
	sink.AddSources(env.instrument)
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go env.watch(done)
	if env.screen.Notification() == screen.None {
		env.notify(screen.Ready)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := perform(ctx, env, *run, *luaFile); err != nil {
		log.Print(err)
	}

	if w, ok := sink.(*audio.WavRenderer); ok {
		select {
		case <-w.Done():
		case <-ctx.Done():
		}
	} else if *keys {
		if err := playKeys(env); err != nil {
			log.Print(err)
		}
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := repl(env); err != nil {
			log.Print(err)
		}
	} else if err := batch(env, os.Stdin); err != nil {
		log.Print(err)
	}

	if err := sink.Stop(); err != nil {
		log.Print(err)
	}
	close(done)
	if err := env.flush(); err != nil {
		log.Print(err)
	}
}

// perform runs the startup command file and then the Lua script.
func perform(ctx context.Context, env *env, run, luaFile string) error {
	if run != "" {
		f, err := os.Open(run)
		if err != nil {
			return err
		}
		err = batch(env, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", run, err)
		}
	}
	if luaFile != "" {
		return newScript(env).RunFile(ctx, luaFile)
	}
	return nil
}

func loadControllers(path string) (audio.ControllerMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := audio.ParseControllerMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// openSettings loads the saved parameters into props. The current values of
// props are the factory settings for a new file.
func openSettings(path string, props *audio.Props) (*settings.Store, error) {
	factory := make(map[string]uint8)
	for _, key := range settings.Keys() {
		v, err := props.Get(key)
		if err != nil {
			return nil, err
		}
		factory[key] = uint8(v.(int))
	}
	store, err := settings.OpenFile(path, factory)
	if store == nil {
		return nil, err
	}
	for key, v := range store.Values() {
		if err := props.Set(key, int(v)); err != nil {
			log.Printf("saved setting ignored: %v", err)
		}
	}
	return store, err
}
