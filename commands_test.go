package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mrdg/dbsynth/audio"
	"github.com/mrdg/dbsynth/dub"
	"github.com/mrdg/dbsynth/midi"
	"github.com/mrdg/dbsynth/screen"
	"github.com/mrdg/dbsynth/settings"
)

func newTestEnv() (*env, *bytes.Buffer) {
	props := audio.NewProps()
	queue := midi.NewQueue(256)
	var out bytes.Buffer
	e := newEnv(props, queue, &out)
	synth := audio.NewSynth(props, queue, audio.Config{Mode: audio.ModePolled, OnChange: e.onChange})
	e.instrument = audio.NewInstrument(props, synth)
	audio.NewSequencer(props)
	return e, &out
}

func drain(q *midi.Queue) []byte {
	var bs []byte
	for q.Available() {
		bs = append(bs, q.Next())
	}
	return bs
}

func TestEvalMIDI(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"note 60", []byte{0x90, 60, 100}},
		{"note 60 10", []byte{0x90, 60, 10}},
		{"off 60", []byte{0x80, 60, 0}},
		{"cc 74 10", []byte{0xb0, 74, 10}},
		{"send 0xf8 0x90 0x40 0x7f", []byte{0xf8, 0x90, 0x40, 0x7f}},
		{"panic", []byte{0xb0, 120, 0}},
	}
	for _, test := range tests {
		e, _ := newTestEnv()
		if _, err := e.eval(test.input); err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if got := drain(e.queue); !bytes.Equal(test.want, got) {
			t.Errorf("%s: want % x, got % x", test.input, test.want, got)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	inputs := []string{
		"note",
		"note 128",
		"note 60 100 1",
		"off x",
		"cc 1 200",
		"send 256",
		"send 1.5",
		"set osc.waveform",
		"set osc.waveform noise",
		"set nope 1",
		"get nope",
		"bpm 0",
		"loop a 0 [60]",
		"loop a 4 [x]",
		"loop a 4 [(60)]",
		"loop a 4 [0 [0 0]]",
		"unloop a",
		"preset nope",
		"save",
		"nope",
		"[",
	}
	for _, input := range inputs {
		e, _ := newTestEnv()
		if _, err := e.eval(input); err == nil {
			t.Errorf("%s: expected an error", input)
		}
		if got := drain(e.queue); len(got) > 0 {
			t.Errorf("%s: sent % x", input, got)
		}
	}
}

func TestEvalChannel(t *testing.T) {
	e, _ := newTestEnv()
	if _, err := e.eval("set midi.channel 2"); err != nil {
		t.Fatal(err)
	}
	e.eval("note 60")
	if want, got := []byte{0x92, 60, 100}, drain(e.queue); !bytes.Equal(want, got) {
		t.Errorf("want % x, got % x", want, got)
	}
}

func TestSetGet(t *testing.T) {
	e, _ := newTestEnv()
	for _, input := range []string{"set adsr.attack 40", "set osc.waveform saw", "set level -6", "bpm 90"} {
		if _, err := e.eval(input); err != nil {
			t.Fatalf("%s: %v", input, err)
		}
	}
	v, _ := e.props.Get(audio.KeyAttack)
	if want, got := 40, v.(int); want != got {
		t.Errorf("attack: want %v, got %v", want, got)
	}
	v, _ = e.props.Get(audio.KeyWaveform)
	if want, got := int(audio.Saw), v.(int); want != got {
		t.Errorf("waveform: want %v, got %v", want, got)
	}

	result, err := e.eval("get osc.waveform")
	if err != nil {
		t.Fatal(err)
	}
	if want, got := dub.String("3 (saw)"), result; want != got {
		t.Errorf("want %q, got %q", want, got)
	}
	result, _ = e.eval("get bpm")
	if want, got := dub.Number(90), result; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	result, _ = e.eval("get level")
	if want, got := dub.Number(-6), result; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestParams(t *testing.T) {
	e, _ := newTestEnv()
	result, err := e.eval("params")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(result.(dub.String)), "\n")
	if want, got := len(audio.ParamKeys()), len(lines); want != got {
		t.Fatalf("want %v lines, got %v", want, got)
	}
	for i, key := range audio.ParamKeys() {
		if !strings.HasPrefix(lines[i], key) {
			t.Errorf("line %v: want %s, got %q", i, key, lines[i])
		}
	}
}

type recorder struct {
	events [][4]int
}

func (r *recorder) PlayNote(offset, pitch, velocity, duration int) {
	r.events = append(r.events, [4]int{offset, pitch, velocity, duration})
}

func TestEvalPattern(t *testing.T) {
	input := "loop a 4 [60 [62 64] 0 (65 30)]"
	cmd, err := dub.Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	var r recorder
	clip := audio.NewClip(4, &r)
	if err := evalPattern(cmd.Args[2].(dub.Array), clip, 4, new(float64)); err != nil {
		t.Fatal(err)
	}
	props := audio.NewProps()
	seq := audio.NewSequencer(props)
	if err := props.Set(audio.PropClips, map[string]*audio.Clip{"a": clip}); err != nil {
		t.Fatal(err)
	}
	// 4 beats at 120 bpm
	seq.Tick(2 * audio.SampleRate)

	want := [][4]int{
		{0, 60, audio.DefaultVelocity, 24000},
		{24000, 62, audio.DefaultVelocity, 12000},
		{36000, 64, audio.DefaultVelocity, 12000},
		{72000, 65, 30, 24000},
	}
	if !reflect.DeepEqual(want, r.events) {
		t.Errorf("want %v, got %v", want, r.events)
	}
}

func TestLoop(t *testing.T) {
	e, _ := newTestEnv()
	for _, input := range []string{"loop bass 4 [36 0 (40 64) [43 45]]", "loop lead 2 [72 74]"} {
		if _, err := e.eval(input); err != nil {
			t.Fatalf("%s: %v", input, err)
		}
	}
	v, _ := e.props.Get(audio.PropClips)
	clips := v.(map[string]*audio.Clip)
	if want, got := 4, clips["bass"].NumNotes(); want != got {
		t.Errorf("bass: want %v notes, got %v", want, got)
	}
	result, _ := e.eval("get clips")
	if want, got := dub.String("bass lead"), result; want != got {
		t.Errorf("want %q, got %q", want, got)
	}

	if _, err := e.eval("unloop bass"); err != nil {
		t.Fatal(err)
	}
	v, _ = e.props.Get(audio.PropClips)
	if _, ok := v.(map[string]*audio.Clip)["bass"]; ok {
		t.Error("bass is still looping")
	}
	if _, ok := clips["bass"]; !ok {
		t.Error("clips were modified in place")
	}
}

func TestPresetCommand(t *testing.T) {
	e, _ := newTestEnv()
	if _, err := e.eval("preset pad"); err != nil {
		t.Fatal(err)
	}
	v, _ := e.props.Get(audio.KeyAttack)
	if want, got := 90, v.(int); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := screen.PresetUpdated, e.screen.Notification(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}

	e.eval("preset nope")
	if want, got := screen.Error, e.screen.Notification(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestScreenCommand(t *testing.T) {
	e, out := newTestEnv()
	e.eval("screen")
	if want, got := screen.NumLines, strings.Count(out.String(), "\n"); want != got {
		t.Errorf("want %v lines, got %v", want, got)
	}
}

type memory []byte

func (m memory) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, m[off:]), nil
}

func (m memory) WriteAt(p []byte, off int64) (int, error) {
	return copy(m[off:], p), nil
}

func TestApplyChanges(t *testing.T) {
	e, _ := newTestEnv()
	storage := make(memory, settings.Size)
	for i := range storage {
		storage[i] = 0xff
	}
	store, err := settings.Open(storage, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.store = store

	e.apply(change{audio.KeyAttack, 40})
	e.apply(change{audio.KeyCutoff, 10})
	if want, got := "AE: "+audio.TimeDescription(40), e.screen.Lines()[4]; !strings.HasPrefix(got, want) {
		t.Errorf("want prefix %q, got %q", want, got)
	}
	if !store.Pending() {
		t.Fatal("changes were not marked for writing")
	}
	now := time.Now()
	for i := 0; i < 3; i++ {
		e.task(now)
	}
	if store.Pending() {
		t.Error("changes were not written")
	}
	if want, got := byte(40), storage[32]; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if _, err := e.eval("save"); err != nil {
		t.Error(err)
	}
}

func TestOnChange(t *testing.T) {
	e, _ := newTestEnv()
	for i := 0; i < 2*cap(e.changes); i++ {
		e.onChange(audio.KeyAttack, i&0x7f)
	}
	if want, got := cap(e.changes), len(e.changes); want != got {
		t.Errorf("want %v queued changes, got %v", want, got)
	}
}

func TestSyncReportsChanges(t *testing.T) {
	e, _ := newTestEnv()
	e.eval("set filter.type lpf")
	e.instrument.Render(make([]int16, 16))
	select {
	case c := <-e.changes:
		if want, got := (change{audio.KeyFilterType, int(audio.LowPass)}), c; want != got {
			t.Errorf("want %v, got %v", want, got)
		}
	default:
		t.Error("no change reported")
	}
}

func TestBatch(t *testing.T) {
	e, out := newTestEnv()
	input := "# comment\n\nset adsr.decay 10\npresets\nnote 60\n"
	if err := batch(e, strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	if want, got := strings.Join(audio.Presets(), " ")+"\n", out.String(); want != got {
		t.Errorf("want %q, got %q", want, got)
	}
	if want, got := []byte{0x90, 60, 100}, drain(e.queue); !bytes.Equal(want, got) {
		t.Errorf("want % x, got % x", want, got)
	}

	err := batch(e, strings.NewReader("note 60\nnote x\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("want an error for line 2, got %v", err)
	}
}
